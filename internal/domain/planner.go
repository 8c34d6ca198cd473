package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"starhook.dev/pkg/starhook/internal/adapter"
	"starhook.dev/pkg/starhook/internal/bytecode"
	"starhook.dev/pkg/starhook/internal/domain/hooksites"
	m "starhook.dev/pkg/starhook/internal/model"
)

const fileDescriptor = "Ljava/io/File;"

// PlanState is a step of planning one hook site.
type PlanState int

const (
	LocatingLauncher PlanState = iota
	LocatingRealTarget
	ClassifyingTargetShape
	LocatingInsertionPoint
	Planned
	Failed
)

var planStateNames = [...]string{
	LocatingLauncher:       "locating_launcher",
	LocatingRealTarget:     "locating_real_target",
	ClassifyingTargetShape: "classifying_target_shape",
	LocatingInsertionPoint: "locating_insertion_point",
	Planned:                "planned",
	Failed:                 "failed",
}

func (s PlanState) String() string {
	if s < 0 || int(s) >= len(planStateNames) {
		return fmt.Sprintf("PlanState(%d)", int(s))
	}

	return planStateNames[s]
}

// PatchTarget is a planned injection. It is only valid during the pass that
// produced it.
type PatchTarget struct {
	Site     string
	Class    *bytecode.ClassNode
	Method   *bytecode.MethodNode
	Cursor   *bytecode.Cursor
	Argument m.Argument
	Hook     m.HookSymbol
	Shape    m.Shape
	Rank     m.Rank
}

// ClassSet hands out one node per class for the duration of a pass, so every
// site that resolves to the same class edits the same node.
type ClassSet struct {
	loader  adapter.ClassLoader
	classes map[string]*bytecode.ClassNode
}

// NewClassSet creates an empty set backed by loader.
func NewClassSet(loader adapter.ClassLoader) *ClassSet {
	return &ClassSet{loader: loader, classes: make(map[string]*bytecode.ClassNode)}
}

// Get returns the node for the internal name, loading it on first use.
func (s *ClassSet) Get(ctx context.Context, name string) (*bytecode.ClassNode, error) {
	name = m.InternalName(name)
	if c, ok := s.classes[name]; ok {
		return c, nil
	}

	c, err := s.loader.LoadClass(ctx, name)
	if err != nil {
		return nil, err
	}

	s.classes[name] = c

	return c, nil
}

// Planner turns hook sites into patch targets without touching any code.
type Planner struct {
	classes *ClassSet
	ranks   m.RankTable
	hooks   m.Hooks
}

// NewPlanner creates a planner that ranks shapes with ranks.
func NewPlanner(classes *ClassSet, ranks m.RankTable, hooks m.Hooks) *Planner {
	return &Planner{classes: classes, ranks: ranks, hooks: hooks}
}

type plan struct {
	site  hooksites.Site
	entry *bytecode.ClassNode
	state PlanState

	launcher  *bytecode.MethodNode
	class     *bytecode.ClassNode
	candidate Candidate
	target    PatchTarget
	err       error
}

// Plan runs the site's state machine against the entry class.
func (p *Planner) Plan(ctx context.Context, entry *bytecode.ClassNode, site hooksites.Site) (PatchTarget, error) {
	pl := &plan{site: site, entry: entry, state: LocatingLauncher}

	for pl.state != Planned && pl.state != Failed {
		from := pl.state
		pl.state = p.step(ctx, pl)

		slog.Debug("Plan transition", "site", site.Name, "from", from, "to", pl.state)
	}

	if pl.err != nil {
		return PatchTarget{}, pl.err
	}

	return pl.target, nil
}

func (p *Planner) step(ctx context.Context, pl *plan) PlanState {
	switch pl.state {
	case LocatingLauncher:
		return p.locateLauncher(pl)
	case LocatingRealTarget:
		return p.locateRealTarget(ctx, pl)
	case ClassifyingTargetShape:
		return p.classifyTargetShape(pl)
	case LocatingInsertionPoint:
		return p.locateInsertionPoint(pl)
	}

	pl.err = fmt.Errorf("invalid plan state %s", pl.state)

	return Failed
}

func (p *Planner) locateLauncher(pl *plan) PlanState {
	launcher, ok := FindMethod(pl.entry, pl.site.Launcher)
	if !ok {
		return pl.fail(ErrLandmarkNotFound, pl.entry.Name, pl.site.LauncherDesc, nil)
	}

	pl.launcher = launcher

	return LocatingRealTarget
}

func (p *Planner) locateRealTarget(ctx context.Context, pl *plan) PlanState {
	node, ok := bytecode.FindInsn(pl.launcher, pl.site.Landmark, pl.site.FromEnd)
	if !ok {
		return pl.fail(ErrLandmarkNotFound, pl.entry.Name, pl.site.LandmarkDesc, nil)
	}

	call, ok := node.Insn.(*bytecode.MethodInsn)
	if !ok {
		return pl.fail(ErrLandmarkNotFound, pl.entry.Name, pl.site.LandmarkDesc,
			fmt.Errorf("landmark matched non-invoke %s", node.Insn))
	}

	if call.Owner == pl.entry.Name {
		pl.class = pl.entry
		return ClassifyingTargetShape
	}

	class, err := p.classes.Get(ctx, call.Owner)
	if err != nil {
		return pl.fail(ErrClassLoadFailure, call.Owner, pl.site.LandmarkDesc, err)
	}

	pl.class = class

	return ClassifyingTargetShape
}

func (p *Planner) classifyTargetShape(pl *plan) PlanState {
	candidate, ok := FindBestCandidate(pl.class, pl.site.Shapes, p.ranks)
	if !ok {
		return pl.fail(ErrAmbiguousTarget, pl.class.Name, shapesDesc(pl.site.Shapes), nil)
	}

	pl.candidate = candidate

	return LocatingInsertionPoint
}

func (p *Planner) locateInsertionPoint(pl *plan) PlanState {
	c := pl.candidate

	cursor, ok := insertionPoint(c.Method, c.Shape)
	if !ok && c.Fallback != nil && c.Fallback != c.Method {
		slog.Debug("Trying fallback candidate", "site", pl.site.Name, "class", pl.class.Name,
			"method", c.Fallback.String())

		c = Candidate{Method: c.Fallback, Shape: c.FallbackShape, Rank: p.ranks[c.FallbackShape]}
		cursor, ok = insertionPoint(c.Method, c.Shape)
	}

	if !ok {
		return pl.fail(ErrLandmarkNotFound, pl.class.Name, "return in "+c.Method.String(), nil)
	}

	pl.target = PatchTarget{
		Site:     pl.site.Name,
		Class:    pl.class,
		Method:   c.Method,
		Cursor:   cursor,
		Argument: argumentFor(pl.site, c.Method),
		Hook:     p.hooks[pl.site.Hook],
		Shape:    c.Shape,
		Rank:     c.Rank,
	}

	return Planned
}

func (pl *plan) fail(kind error, class, landmark string, err error) PlanState {
	pl.err = &PatchError{Kind: kind, Site: pl.site.Name, Class: class, Landmark: landmark, Err: err}
	return Failed
}

// insertionPoint places a cursor at the start of a run loop or right before
// the terminal return of a constructor.
func insertionPoint(method *bytecode.MethodNode, shape m.Shape) (*bytecode.Cursor, bool) {
	cursor := method.Instructions.Cursor()
	if shape != m.ShapeConstructor {
		return cursor, true
	}

	if !bytecode.MoveBefore(cursor, bytecode.OpReturn) {
		return nil, false
	}

	return cursor, true
}

func argumentFor(site hooksites.Site, method *bytecode.MethodNode) m.Argument {
	if site.PassesRunDir && bytecode.FirstParameter(method.Desc) == fileDescriptor {
		return m.LoadLocal(1)
	}

	return m.NullConstant()
}

func shapesDesc(shapes []m.Shape) string {
	names := make([]string, len(shapes))
	for i, s := range shapes {
		names[i] = s.MethodName()
	}

	return "instance method named " + strings.Join(names, " or ")
}
