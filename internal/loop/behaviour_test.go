package loop_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/servoloop/internal/config"
	"github.com/san-kum/servoloop/internal/loop"
	"github.com/san-kum/servoloop/internal/simio"
)

var _ = Describe("arm control loop", func() {
	var (
		cfg      *config.Config
		recorder *simio.Recorder
	)

	build := func(in loop.Input) *loop.Loop {
		lc, err := cfg.ToLoop()
		Expect(err).NotTo(HaveOccurred())
		l, err := loop.New(lc, &loop.HardwareContext{Input: in, Actuator: recorder})
		Expect(err).NotTo(HaveOccurred())
		return l
	}

	position := func(id int) float64 {
		v, ok := recorder.Position(id)
		Expect(ok).To(BeTrue(), "no accepted command for %d", id)
		return v
	}

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		recorder = simio.NewRecorder()
	})

	Context("with every input centred and the button released", func() {
		It("holds every servo at its centre", func() {
			in := simio.Constant{0: loop.SampleCenter, 1: loop.SampleCenter, 2: loop.SampleCenter, 3: loop.ButtonReleased}
			cfg.Channels = cfg.Channels[:3]
			l := build(in)

			_, err := l.RunCycles(context.Background(), 20)
			Expect(err).NotTo(HaveOccurred())
			for _, id := range []int{12, 13, 14} {
				Expect(recorder.History(id)).To(HaveLen(20))
				// 32768 sits just above the midpoint of 0..65535
				Expect(position(id)).To(BeNumerically("~", 90, 0.01))
			}
		})
	})

	Context("with the joystick pushed to full scale", func() {
		It("moves no faster than max speed and settles at the range limit", func() {
			in := simio.Constant{0: loop.SampleMax, 1: loop.SampleMax, 2: loop.SampleCenter, 3: loop.ButtonReleased}
			l := build(in)

			results, err := l.RunCycles(context.Background(), 400)
			Expect(err).NotTo(HaveOccurred())

			prev := 90.0
			for _, res := range results {
				a := res.Angles()[0]
				Expect(a.Angle-prev).To(BeNumerically("<=", config.DefaultMaxSpeed+1e-9))
				Expect(a.Angle).To(BeNumerically("<=", 160))
				prev = a.Angle
			}
			last := results[len(results)-1]
			Expect(last.Channels[0].Angle).To(BeNumerically("~", 160, 0.5))
			Expect(last.Channels[1].Angle).To(BeNumerically("~", 180, 0.5))
		})
	})

	Context("with the claw button", func() {
		It("opens on press and returns on release", func() {
			in := simio.NewScript(map[int][]loop.RawSample{
				0: {loop.SampleCenter}, 1: {loop.SampleCenter}, 2: {loop.SampleCenter},
			})
			button := simio.NewScript(map[int][]loop.RawSample{3: {loop.ButtonPressed}})
			l := build(simio.Mux{0: in, 1: in, 2: in, 3: button})

			results, err := l.RunCycles(context.Background(), 300)
			Expect(err).NotTo(HaveOccurred())
			claw := results[len(results)-1].Channels[3]
			Expect(claw.Name).To(Equal("Claw"))
			Expect(claw.Target).To(Equal(180.0))
			Expect(claw.Angle).To(BeNumerically(">", 170))
		})
	})

	Context("when an input keeps failing", func() {
		It("keeps driving the other channels", func() {
			in := &simio.Faulty{
				Input:  simio.Constant{0: loop.SampleMax, 1: loop.SampleMax, 2: loop.SampleCenter, 3: loop.ButtonReleased},
				Every:  1,
				Inputs: []int{0},
			}
			l := build(in)

			results, err := l.RunCycles(context.Background(), 10)
			Expect(err).NotTo(HaveOccurred())
			for _, res := range results {
				Expect(res.Channels[0].ReadErr).To(MatchError(loop.ErrReadFailure))
				Expect(res.Channels[1].ReadErr).NotTo(HaveOccurred())
			}
			Expect(position(12)).To(BeNumerically("~", 90, 0.01))
			Expect(position(13)).To(BeNumerically(">", 90))

			state, ok := l.State(12)
			Expect(ok).To(BeTrue())
			Expect(state.ReadFailures).To(Equal(10))
		})
	})

	Context("when the actuator refuses a channel", func() {
		It("records the failure and continues the cycle", func() {
			recorder.Reject[13] = true
			in := simio.Constant{0: loop.SampleMax, 1: loop.SampleMax, 2: loop.SampleCenter, 3: loop.ButtonReleased}
			l := build(in)

			res := l.Step()
			Expect(res.Channels[1].CommandErr).To(MatchError(loop.ErrActuatorCommand))
			Expect(res.Channels[2].CommandErr).NotTo(HaveOccurred())
			Expect(recorder.History(14)).To(HaveLen(1))
		})
	})

	Context("with the direct preset", func() {
		It("steps straight toward the mapped target", func() {
			cfg = config.GetPreset("direct")
			in := simio.Constant{0: loop.SampleMax, 1: 0, 2: loop.SampleCenter, 3: loop.ButtonReleased}
			l := build(in)

			res := l.Step()
			Expect(res.Channels[0].Angle).To(BeNumerically("~", 92, 1e-9))
			Expect(res.Channels[1].Angle).To(BeNumerically("~", 88, 1e-9))
			Expect(l.Period()).To(Equal(100 * time.Millisecond))
		})
	})

	Context("when run against a period", func() {
		It("stops when the context is cancelled", func() {
			cfg.CyclePeriodMS = 1
			in := simio.Constant{0: loop.SampleCenter, 1: loop.SampleCenter, 2: loop.SampleCenter, 3: loop.ButtonReleased}
			l := build(in)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			Expect(l.Run(ctx)).To(MatchError(context.DeadlineExceeded))
			Expect(l.Cycles()).To(BeNumerically(">", 1))
		})
	})
})
