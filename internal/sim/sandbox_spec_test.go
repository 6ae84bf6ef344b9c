package sim_test

import (
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ballpit/internal/drag"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/sim"
)

const dt = 1.0 / 480

var _ = Describe("Sandbox", func() {
	var (
		world  *sim.World
		sched  *sim.Scheduler
		bridge *drag.Bridge
		ball   *dynamo.Body
		handle dynamo.Handle
	)

	BeforeEach(func() {
		var err error
		world, err = sim.NewWorld(dynamo.Vec{Y: -0.8}, dt)
		Expect(err).NotTo(HaveOccurred())

		ball, err = dynamo.NewBody(dynamo.Vec{X: 0.3, Y: 0.9}, 0.1, "#ff0000")
		Expect(err).NotTo(HaveOccurred())
		handle, err = world.Add(ball)
		Expect(err).NotTo(HaveOccurred())

		sched = sim.NewScheduler(world, sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		bridge = drag.New(world)
	})

	Describe("the fixed-step scheduler", func() {
		It("runs two steps for two and a half steps of wall time", func() {
			Expect(sched.Advance(2.5 * dt)).To(Equal(2))
			Expect(sched.Remainder()).To(BeNumerically("~", 0.5*dt, 1e-12))
			Expect(world.Steps()).To(Equal(2))
		})

		It("produces the same trajectory regardless of frame pacing", func() {
			other, err := sim.NewWorld(dynamo.Vec{Y: -0.8}, dt)
			Expect(err).NotTo(HaveOccurred())
			twin, _ := dynamo.NewBody(dynamo.Vec{X: 0.3, Y: 0.9}, 0.1, "#ff0000")
			_, err = other.Add(twin)
			Expect(err).NotTo(HaveOccurred())
			otherSched := sim.NewScheduler(other, sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

			for i := 0; i < 30; i++ {
				sched.Advance(1.0 / 30)
			}
			for i := 0; i < 1000; i++ {
				otherSched.Advance(1.0 / 1000)
			}
			// run the straggler up to the same step count
			for other.Steps() < world.Steps() {
				other.Step()
			}
			for world.Steps() < other.Steps() {
				world.Step()
			}

			Expect(twin.Pos).To(Equal(ball.Pos))
			Expect(twin.Prev).To(Equal(ball.Prev))
		})
	})

	Describe("a settled ball", func() {
		It("comes to rest on the slope or the floor and stays inside the box", func() {
			for i := 0; i < 600; i++ {
				sched.Advance(1.0 / 60)
			}
			Expect(ball.Pos.X).To(BeNumerically(">=", ball.Radius))
			Expect(ball.Pos.X).To(BeNumerically("<=", 1-ball.Radius))
			Expect(ball.Pos.Y).To(BeNumerically(">=", ball.Radius))
			Expect(world.Solver().Counts()).To(HaveKey("slope"))
		})
	})

	Describe("dragging", func() {
		It("freezes the ball while held and releases it at rest", func() {
			Expect(bridge.Start(handle, dynamo.Vec{X: 0.6, Y: 0.8})).To(Succeed())
			var last dynamo.Vec
			for i := 0; i < 10; i++ {
				last = dynamo.Vec{X: 0.6 + 0.02*float64(i), Y: 0.8}
				bridge.Move(last)
				sched.Advance(1.0 / 60)
			}
			Expect(ball.Dynamic).To(BeFalse())
			Expect(ball.Pos).To(Equal(last))

			Expect(bridge.End()).To(BeTrue())
			Expect(ball.Velocity()).To(Equal(dynamo.Vec{}))

			world.Step()
			Expect(ball.Velocity().X).To(BeZero())
			Expect(ball.Velocity().Y).To(BeNumerically("~", -0.8*dt*dt, 1e-15))
		})

		It("rejects an unknown handle without touching the ball", func() {
			before := *ball
			err := bridge.Start(dynamo.Handle(42), dynamo.Vec{X: 0.5, Y: 0.5})
			Expect(err).To(MatchError(dynamo.ErrUnknownHandle))
			Expect(*ball).To(Equal(before))
		})
	})
})
