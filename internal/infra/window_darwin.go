//go:build darwin && cgo

package infra

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdlib.h>
#include <string.h>

#define NC_STR_MAX 512

typedef struct {
    char    owner[NC_STR_MAX];
    int     hasOwner;
    char    name[NC_STR_MAX];
    int32_t ownerPID;
    int32_t windowID;
    int32_t sharingState;
    int     hasSharingState;
    int32_t layer;
} ncWindowInfo;

static int ncCopyString(CFDictionaryRef dict, CFStringRef key, char *buf) {
    buf[0] = '\0';
    CFStringRef value = (CFStringRef)CFDictionaryGetValue(dict, key);
    if (value == NULL || CFGetTypeID(value) != CFStringGetTypeID()) {
        return 0;
    }
    if (!CFStringGetCString(value, buf, NC_STR_MAX, kCFStringEncodingUTF8)) {
        buf[0] = '\0';
        return 0;
    }
    return 1;
}

static int ncCopyInt(CFDictionaryRef dict, CFStringRef key, int32_t *out) {
    CFNumberRef value = (CFNumberRef)CFDictionaryGetValue(dict, key);
    if (value == NULL || CFGetTypeID(value) != CFNumberGetTypeID()) {
        return 0;
    }
    return CFNumberGetValue(value, kCFNumberSInt32Type, out) ? 1 : 0;
}

// ncCopyWindows fills *out with every window known to the window server.
// Returns the count, or -1 when the listing is refused. Free with ncFreeWindows.
static int ncCopyWindows(ncWindowInfo **out) {
    *out = NULL;
    CFArrayRef list = CGWindowListCopyWindowInfo(kCGWindowListOptionAll, kCGNullWindowID);
    if (list == NULL) {
        return -1;
    }

    CFIndex count = CFArrayGetCount(list);
    if (count == 0) {
        CFRelease(list);
        return 0;
    }

    ncWindowInfo *infos = calloc((size_t)count, sizeof(ncWindowInfo));
    if (infos == NULL) {
        CFRelease(list);
        return -1;
    }

    int n = 0;
    for (CFIndex i = 0; i < count; i++) {
        CFDictionaryRef dict = (CFDictionaryRef)CFArrayGetValueAtIndex(list, i);
        if (dict == NULL) {
            continue;
        }
        ncWindowInfo *w = &infos[n++];
        w->hasOwner = ncCopyString(dict, kCGWindowOwnerName, w->owner);
        ncCopyString(dict, kCGWindowName, w->name);
        ncCopyInt(dict, kCGWindowOwnerPID, &w->ownerPID);
        ncCopyInt(dict, kCGWindowNumber, &w->windowID);
        w->hasSharingState = ncCopyInt(dict, kCGWindowSharingState, &w->sharingState);
        ncCopyInt(dict, kCGWindowLayer, &w->layer);
    }

    CFRelease(list);
    *out = infos;
    return n;
}

static void ncFreeWindows(ncWindowInfo *infos) {
    free(infos);
}
*/
import "C"

import (
	"context"
	"unsafe"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

// CGWindowProvider implements domain.WindowProvider with CGWindowListCopyWindowInfo.
type CGWindowProvider struct {
	processManager domain.ProcessManager
	logger         *zap.Logger
}

// NewWindowProvider returns the CoreGraphics window provider.
func NewWindowProvider(pm domain.ProcessManager, logger *zap.Logger) (domain.WindowProvider, error) {
	return &CGWindowProvider{
		processManager: pm,
		logger:         logger,
	}, nil
}

// Windows returns one record per window in window-server order.
func (p *CGWindowProvider) Windows(ctx context.Context) ([]domain.WindowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list *C.ncWindowInfo
	n := int(C.ncCopyWindows(&list))
	if n < 0 {
		return nil, ErrSnapshotUnavailable
	}
	defer C.ncFreeWindows(list)

	infos := unsafe.Slice(list, n)
	records := make([]domain.WindowRecord, 0, n)
	for i := range infos {
		info := &infos[i]

		rec := domain.WindowRecord{
			OwnerName:    C.GoString(&info.owner[0]),
			OwnerPID:     int32(info.ownerPID),
			WindowID:     int32(info.windowID),
			WindowName:   C.GoString(&info.name[0]),
			SharingState: int32(info.sharingState),
			Layer:        int32(info.layer),
		}
		if info.hasSharingState == 0 {
			rec.SharingState = sharingReadOnly
		}
		if info.hasOwner == 0 {
			rec.OwnerName = p.resolveOwner(rec.OwnerPID)
		}

		records = append(records, rec)
	}

	return records, nil
}

// resolveOwner falls back to the process name when the window server omits the owner.
func (p *CGWindowProvider) resolveOwner(pid int32) string {
	if p.processManager == nil || pid <= 0 {
		return ""
	}
	name, err := p.processManager.NameOf(int(pid))
	if err != nil {
		p.logger.Debug("owner name unavailable", zap.Int32("owner_pid", pid), zap.Error(err))
		return ""
	}
	return name
}

// Ensure CGWindowProvider implements domain.WindowProvider.
var _ domain.WindowProvider = (*CGWindowProvider)(nil)
