//go:build integration

package integration

import (
	"context"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/daemon"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/infra"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/policy"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/usecase"
	"github.com/eliteGoblin/focusd/cluely_mon/test/fixtures"
)

// events records callback order from the polling goroutine.
type events struct {
	mu   sync.Mutex
	list []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = append(e.list, s)
}

func (e *events) count(s string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, v := range e.list {
		if v == s {
			n++
		}
	}
	return n
}

var _ = Describe("Monitor", func() {
	const interval = 50 * time.Millisecond

	var (
		tmpDir   string
		session  *fixtures.FakeSession
		pm       domain.ProcessManager
		store    *infra.EncryptedStateStore
		monitor  *daemon.Monitor
		recorded *events
		cb       daemon.Callbacks
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "nocluely-integration-*")
		Expect(err).NotTo(HaveOccurred())

		session = fixtures.NewFakeSession(tmpDir)
		Expect(session.Clean()).To(Succeed())

		pm = infra.NewProcessManager()
		store, err = infra.OpenStateStore(tmpDir, pm)
		Expect(err).NotTo(HaveOccurred())

		detector := usecase.NewDetectorWithProcessManager(
			infra.NewSnapshotProvider(session.Path), pm, policy.NewCluelySignature(), zap.NewNop())
		monitor = daemon.NewMonitor(detector, store, zap.NewNop())

		recorded = &events{}
		cb = daemon.Callbacks{
			OnDetected: func(domain.DetectionResult) { recorded.add("detected") },
			OnRemoved:  func() { recorded.add("removed") },
			OnChange:   func(domain.DetectionResult) { recorded.add("change") },
		}
	})

	AfterEach(func() {
		monitor.Stop()
		store.Close()
		os.RemoveAll(tmpDir)
	})

	Describe("transitions", func() {
		Context("when an overlay appears and then closes", func() {
			It("should fire detected and removed exactly once each", func() {
				Expect(monitor.Start(interval, cb)).To(Succeed())
				Eventually(func() int { return recorded.count("change") }).Should(BeNumerically(">=", 1))
				Expect(recorded.count("detected")).To(Equal(0))

				Expect(session.Hidden()).To(Succeed())
				Eventually(func() int { return recorded.count("detected") }).Should(Equal(1))

				last := monitor.LastDetection()
				Expect(last).NotTo(BeNil())
				Expect(last.IsDetected).To(BeTrue())
				Expect(last.ScreenCaptureEvasionCount).To(Equal(uint32(1)))
				Expect(last.MaxLayerDetected).To(Equal(int32(3)))

				Expect(session.Clean()).To(Succeed())
				Eventually(func() int { return recorded.count("removed") }).Should(Equal(1))
				Consistently(func() int { return recorded.count("detected") }, 4*interval).Should(Equal(1))
			})
		})

		Context("when the monitor is stopped", func() {
			It("should stop firing callbacks and forget the last result", func() {
				Expect(monitor.Start(interval, cb)).To(Succeed())
				Eventually(func() int { return recorded.count("change") }).Should(BeNumerically(">=", 1))

				monitor.Stop()
				Expect(monitor.IsRunning()).To(BeFalse())
				Expect(monitor.LastDetection()).To(BeNil())

				n := recorded.count("change")
				Consistently(func() int { return recorded.count("change") }, 4*interval).Should(Equal(n))
			})
		})
	})

	Describe("state store", func() {
		It("should persist the latest result", func() {
			Expect(session.Hidden()).To(Succeed())
			Expect(monitor.Start(interval, cb)).To(Succeed())
			Eventually(func() int { return recorded.count("detected") }).Should(Equal(1))

			Eventually(func() bool {
				stored, err := store.LastResult()
				return err == nil && stored != nil && stored.Result.IsDetected
			}).Should(BeTrue())

			stored, err := store.LastResult()
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Severity).To(Equal(domain.SeverityHigh))
		})

		It("should register while running and clear on shutdown", func() {
			ctx, cancel := context.WithCancel(context.Background())
			reg := domain.MonitorRegistration{
				PID:        pm.GetCurrentPID(),
				Interval:   interval,
				StartedAt:  time.Now(),
				AppVersion: "test",
			}

			errCh := make(chan error, 1)
			go func() { errCh <- monitor.Run(ctx, reg, cb) }()

			Eventually(func() bool {
				alive, err := store.IsMonitorAlive()
				return err == nil && alive
			}).Should(BeTrue())

			cancel()
			Eventually(errCh).Should(Receive(MatchError(context.Canceled)))

			got, err := store.GetMonitor()
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})
	})
})
