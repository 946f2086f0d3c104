package sim_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/risley/internal/kinematics"
	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/rays"
	"github.com/san-kum/risley/internal/sim"
)

func midPoint(env optics.Envelope, bearing float64) (float64, float64) {
	r := (env.Rd + env.Rmax) / 2
	return r * math.Cos(bearing), r * math.Sin(bearing)
}

var _ = Describe("Controller", func() {
	var (
		ctrl *sim.Controller
		env  optics.Envelope
	)

	BeforeEach(func() {
		var err error
		ctrl, err = sim.New(optics.DefaultParameters())
		Expect(err).NotTo(HaveOccurred())
		env = ctrl.Envelope()
	})

	Describe("construction", func() {
		It("starts empty with the prisms at zero", func() {
			snap := ctrl.Snapshot()
			Expect(snap.Rays).To(BeEmpty())
			Expect(snap.HasSelection).To(BeFalse())
			Expect(snap.Prism1).To(BeZero())
			Expect(snap.Prism2).To(BeZero())
			Expect(snap.Animating).To(BeFalse())
			Expect(snap.Capacity).To(Equal(rays.DefaultCapacity))
		})

		It("rejects invalid parameters", func() {
			p := optics.DefaultParameters()
			p.RefractiveIndex = 0.9
			_, err := sim.New(p)
			Expect(err).To(MatchError(optics.ErrInvalidParameters))
		})

		It("builds independent instances", func() {
			other, err := sim.New(optics.DefaultParameters())
			Expect(err).NotTo(HaveOccurred())
			x, y := midPoint(env, 0)
			_, err = ctrl.AddTarget(x, y)
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Snapshot().Rays).To(BeEmpty())
		})
	})

	Describe("adding targets", func() {
		It("selects the new ray and retargets the prisms", func() {
			x, y := midPoint(env, 1)
			ray, err := ctrl.AddTarget(x, y)
			Expect(err).NotTo(HaveOccurred())

			snap := ctrl.Snapshot()
			Expect(snap.SelectedID).To(Equal(ray.ID))
			Expect(snap.Target1).To(Equal(ray.Theta1))
			Expect(snap.Target2).To(Equal(ray.Theta2))
		})

		It("surfaces a center defect failure without changing state", func() {
			x, y := midPoint(env, 0)
			first, _ := ctrl.AddTarget(x, y)

			_, err := ctrl.AddTarget(0, 0)
			Expect(err).To(MatchError(kinematics.ErrCenterDefect))

			snap := ctrl.Snapshot()
			Expect(snap.Rays).To(HaveLen(1))
			Expect(snap.SelectedID).To(Equal(first.ID))
		})

		It("surfaces an out of range failure", func() {
			_, err := ctrl.AddTarget(env.Rmax+1, 0)
			Expect(err).To(MatchError(kinematics.ErrOutOfRange))
		})

		It("fails with capacity exceeded on the eleventh ray", func() {
			for i := 0; i < rays.DefaultCapacity; i++ {
				x, y := midPoint(env, float64(i)*0.5)
				_, err := ctrl.AddTarget(x, y)
				Expect(err).NotTo(HaveOccurred())
			}
			x, y := midPoint(env, 3)
			_, err := ctrl.AddTarget(x, y)
			Expect(err).To(MatchError(rays.ErrCapacityExceeded))
		})

		It("honours a custom capacity", func() {
			small, err := sim.New(optics.DefaultParameters(), sim.WithCapacity(1))
			Expect(err).NotTo(HaveOccurred())
			x, y := midPoint(env, 0)
			_, err = small.AddTarget(x, y)
			Expect(err).NotTo(HaveOccurred())
			_, err = small.AddTarget(x, y)
			Expect(err).To(MatchError(rays.ErrCapacityExceeded))
		})

		It("places random targets inside the annulus", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < rays.DefaultCapacity; i++ {
				ray, err := ctrl.AddRandomTarget(rng)
				Expect(err).NotTo(HaveOccurred())
				Expect(ray.Radius()).To(BeNumerically(">=", env.Rd*1.5-1e-9))
				Expect(ray.Radius()).To(BeNumerically("<=", env.Rmax*0.8+1e-9))
			}
		})
	})

	Describe("selection and removal", func() {
		var ids []int

		BeforeEach(func() {
			ids = nil
			for i := 0; i < 3; i++ {
				x, y := midPoint(env, float64(i))
				ray, err := ctrl.AddTarget(x, y)
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, ray.ID)
			}
		})

		It("selects an existing ray", func() {
			Expect(ctrl.Select(ids[0])).To(Succeed())
			sel, ok := ctrl.Selected()
			Expect(ok).To(BeTrue())
			Expect(sel.ID).To(Equal(ids[0]))
		})

		It("rejects unknown ids", func() {
			Expect(ctrl.Select(999)).To(MatchError(sim.ErrUnknownRay))
		})

		It("cycles through rays", func() {
			Expect(ctrl.Select(ids[2])).To(Succeed())
			ctrl.SelectNext(1)
			Expect(ctrl.Snapshot().SelectedID).To(Equal(ids[0]))
			ctrl.SelectNext(-1)
			Expect(ctrl.Snapshot().SelectedID).To(Equal(ids[2]))
		})

		It("reselects the first remaining ray when the selected one is removed", func() {
			Expect(ctrl.Select(ids[1])).To(Succeed())
			ctrl.Remove(ids[1])

			snap := ctrl.Snapshot()
			Expect(snap.SelectedID).To(Equal(ids[0]))
			first, _ := snap.Selected()
			Expect(snap.Target1).To(Equal(first.Theta1))
		})

		It("keeps the selection when another ray is removed", func() {
			ctrl.Remove(ids[0])
			Expect(ctrl.Snapshot().SelectedID).To(Equal(ids[2]))
		})

		It("ignores removal of unknown ids", func() {
			ctrl.Remove(12345)
			Expect(ctrl.Snapshot().Rays).To(HaveLen(3))
		})

		It("clears rays and selection", func() {
			ctrl.Clear()
			snap := ctrl.Snapshot()
			Expect(snap.Rays).To(BeEmpty())
			Expect(snap.HasSelection).To(BeFalse())
		})
	})

	Describe("removing the only selected ray", func() {
		It("clears the selection and stops retargeting", func() {
			x, y := midPoint(env, 0.3)
			ray, err := ctrl.AddTarget(x, y)
			Expect(err).NotTo(HaveOccurred())

			ctrl.Remove(ray.ID)
			snap := ctrl.Snapshot()
			Expect(snap.HasSelection).To(BeFalse())

			before := snap.Target1
			Expect(ctrl.SetParameter(sim.ParamDistance, 250)).To(Succeed())
			Expect(ctrl.Snapshot().Target1).To(Equal(before))
		})
	})

	Describe("parameter edits", func() {
		It("recomputes the envelope and re-solves the selected ray", func() {
			x, y := midPoint(env, 0.7)
			ray, _ := ctrl.AddTarget(x, y)

			Expect(ctrl.SetParameter(sim.ParamDistance, 260)).To(Succeed())
			newEnv := ctrl.Envelope()
			Expect(newEnv.Rmax).To(BeNumerically(">", env.Rmax))

			want, err := kinematics.Solve(ray.TargetX, ray.TargetY, newEnv)
			Expect(err).NotTo(HaveOccurred())
			snap := ctrl.Snapshot()
			Expect(snap.Target1).To(Equal(want.Theta1))
			Expect(snap.Target2).To(Equal(want.Theta2))
		})

		It("takes the wedge angle in degrees", func() {
			Expect(ctrl.SetParameter(sim.ParamWedge, 15)).To(Succeed())
			Expect(ctrl.Parameters().WedgeAngle).To(BeNumerically("~", 15*math.Pi/180, 1e-12))
			v, err := ctrl.Parameter(sim.ParamWedge)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically("~", 15, 1e-9))
		})

		It("leaves state unchanged on invalid values", func() {
			before := ctrl.Parameters()
			Expect(ctrl.SetParameter(sim.ParamIndex, 1)).To(MatchError(optics.ErrInvalidParameters))
			Expect(ctrl.Parameters()).To(Equal(before))
		})

		It("rejects unknown parameter names", func() {
			Expect(ctrl.SetParameter("focal", 3)).To(MatchError(sim.ErrUnknownParameter))
			_, err := ctrl.Parameter("focal")
			Expect(err).To(MatchError(sim.ErrUnknownParameter))
		})

		It("keeps rays that become unreachable with stale angles", func() {
			ray, err := ctrl.AddTarget(env.Rmax*0.95, 0)
			Expect(err).NotTo(HaveOccurred())

			Expect(ctrl.SetParameter(sim.ParamDistance, 50)).To(Succeed())
			snap := ctrl.Snapshot()
			Expect(snap.Rays).To(HaveLen(1))
			Expect(snap.Rays[0].Stale).To(BeTrue())
			Expect(snap.Rays[0].Theta1).To(Equal(ray.Theta1))
		})

		It("lists parameter names", func() {
			Expect(sim.ParameterNames()).To(ConsistOf(
				sim.ParamWedge, sim.ParamIndex, sim.ParamThickness,
				sim.ParamDiameter, sim.ParamSeparation, sim.ParamDistance,
			))
		})
	})

	Describe("animation", func() {
		BeforeEach(func() {
			x, y := midPoint(env, 2)
			_, err := ctrl.AddTarget(x, y)
			Expect(err).NotTo(HaveOccurred())
		})

		It("freezes the prisms while disabled", func() {
			ctrl.Tick(0.016)
			snap := ctrl.Snapshot()
			Expect(snap.Prism1).To(BeZero())
			Expect(snap.Prism2).To(BeZero())
		})

		It("converges while enabled", func() {
			Expect(ctrl.ToggleAnimation()).To(BeTrue())
			for i := 0; i < 300; i++ {
				ctrl.Tick(0.016)
			}
			Expect(ctrl.Converged(1e-6)).To(BeTrue())
			snap := ctrl.Snapshot()
			Expect(snap.Prism1).To(BeNumerically("~", snap.Target1, 1e-6))
			Expect(snap.Elapsed).To(BeNumerically("~", 300*0.016, 1e-9))
		})

		It("scales progress with speed", func() {
			slow, _ := sim.New(optics.DefaultParameters(), sim.WithAnimation(true), sim.WithSpeed(0.5))
			fast, _ := sim.New(optics.DefaultParameters(), sim.WithAnimation(true), sim.WithSpeed(2))
			x, y := midPoint(env, 2)
			slow.AddTarget(x, y)
			fast.AddTarget(x, y)
			slow.Tick(0.016)
			fast.Tick(0.016)
			Expect(math.Abs(fast.Snapshot().Prism1)).To(BeNumerically(">", math.Abs(slow.Snapshot().Prism1)))
		})
	})

	Describe("hover preview", func() {
		It("reports reachability without adding rays", func() {
			x, y := midPoint(env, 0)
			ctrl.Hover(x, y)
			snap := ctrl.Snapshot()
			Expect(snap.Hover).NotTo(BeNil())
			Expect(snap.Hover.Reachable).To(BeTrue())
			Expect(snap.Rays).To(BeEmpty())

			ctrl.Hover(0, 0)
			snap = ctrl.Snapshot()
			Expect(snap.Hover.Reachable).To(BeFalse())
			Expect(snap.Hover.Err).To(MatchError(kinematics.ErrCenterDefect))

			ctrl.ClearHover()
			Expect(ctrl.Snapshot().Hover).To(BeNil())
		})
	})

	Describe("restoring saved rays", func() {
		It("re-solves restored rays against the current envelope", func() {
			x, y := midPoint(env, 1)
			Expect(ctrl.Restore(rays.Ray{ID: 4, TargetX: x, TargetY: y, ColorIndex: 2})).To(Succeed())
			snap := ctrl.Snapshot()
			Expect(snap.Rays).To(HaveLen(1))
			want, _ := kinematics.Solve(x, y, env)
			Expect(snap.Rays[0].Theta1).To(Equal(want.Theta1))
			Expect(snap.HasSelection).To(BeFalse())
		})
	})

	Describe("snapshots", func() {
		It("are detached copies", func() {
			x, y := midPoint(env, 0)
			ctrl.AddTarget(x, y)
			snap := ctrl.Snapshot()
			snap.Rays[0].TargetX = 1e6
			Expect(ctrl.Snapshot().Rays[0].TargetX).To(Equal(x))
		})
	})
})
