package connectivity

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/netlist"
)

// design is a test helper assembling a netlist from compact terminal specs.
type design struct {
	instances []netlist.Instance
	pins      []netlist.Pin
	nets      []netlist.Net
}

var inv = &netlist.Master{Name: "INV_X1", Width: 0.38, Height: 1.4}

func (d *design) inst(names ...string) *design {
	for _, n := range names {
		d.instances = append(d.instances, netlist.Instance{Name: n, Master: inv})
	}
	return d
}

func (d *design) pin(name string, dir netlist.Direction) *design {
	d.pins = append(d.pins, netlist.Pin{Name: name, Direction: dir})
	return d
}

func (d *design) net(n netlist.Net) *design {
	d.nets = append(d.nets, n)
	return d
}

func (d *design) Instances() ([]netlist.Instance, error) { return d.instances, nil }
func (d *design) Pins() ([]netlist.Pin, error)           { return d.pins, nil }
func (d *design) Nets() ([]netlist.Net, error)           { return d.nets, nil }

func out(inst string) netlist.ITerm { return netlist.ITerm{Instance: inst, Direction: netlist.DirOutput} }
func in(inst string) netlist.ITerm  { return netlist.ITerm{Instance: inst, Direction: netlist.DirInput} }
func bt(pin string, dir netlist.Direction) netlist.BTerm {
	return netlist.BTerm{Pin: pin, Direction: dir}
}

func mustBuild(t *testing.T, p netlist.Provider, opts Options) *Result {
	t.Helper()
	res, err := Build(context.Background(), p, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res
}

// scenario: pin P drives A on N1, A drives B on N2.
func scenario() *design {
	return (&design{}).
		inst("A", "B").
		pin("P", netlist.DirInput).
		net(netlist.Net{Name: "N1", ITerms: []netlist.ITerm{in("A")}, BTerms: []netlist.BTerm{bt("P", netlist.DirInput)}}).
		net(netlist.Net{Name: "N2", ITerms: []netlist.ITerm{out("A"), in("B")}})
}

func TestBuildScenario(t *testing.T) {
	res := mustBuild(t, scenario(), Options{})
	g := res.Graph

	if g.VertexCount() != 3 {
		t.Errorf("VertexCount = %d, want 3", g.VertexCount())
	}
	want := [][2]string{{"P", "A"}, {"A", "B"}}
	if got := g.EdgePairs(); !reflect.DeepEqual(got, want) {
		t.Errorf("EdgePairs = %v, want %v", got, want)
	}
	if !g.Directed() {
		t.Error("graph should be directed by default")
	}
}

func TestVertexProperties(t *testing.T) {
	g := mustBuild(t, scenario(), Options{}).Graph

	tests := []struct {
		name   string
		kind   graph.Kind
		color  string
		width  float64
		height float64
	}{
		{"A", graph.KindInstance, graph.InstanceColor, 0.38, 1.4},
		{"B", graph.KindInstance, graph.InstanceColor, 0.38, 1.4},
		{"P", graph.KindPin, graph.PinColor, 0, 0},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := g.Vertex(i)
			if !ok {
				t.Fatalf("Vertex(%d) missing", i)
			}
			if v.Name != tt.name || v.Kind != tt.kind || v.Color != tt.color || v.Width != tt.width || v.Height != tt.height {
				t.Errorf("Vertex(%d) = %+v", i, v)
			}
			if v.IsInstance() != (tt.kind == graph.KindInstance) {
				t.Errorf("IsInstance = %v", v.IsInstance())
			}
		})
	}
}

func TestVertexCountIsInstancesPlusPins(t *testing.T) {
	for _, n := range []int{0, 1, 7, 50} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			d := &design{}
			for i := range n {
				d.inst(fmt.Sprintf("u%d", i))
				d.pin(fmt.Sprintf("p%d", i), netlist.DirOutput)
			}
			res := mustBuild(t, d, Options{})
			if got := res.Graph.VertexCount(); got != 2*n {
				t.Errorf("VertexCount = %d, want %d", got, 2*n)
			}
			if res.Stats.Instances != n || res.Stats.Pins != n {
				t.Errorf("Stats = %+v", res.Stats)
			}
		})
	}
}

func TestDriverRule(t *testing.T) {
	tests := []struct {
		name   string
		net    netlist.Net
		driver string
		loads  []string
	}{
		{
			name:   "output instance drives",
			net:    netlist.Net{Name: "n", ITerms: []netlist.ITerm{in("u1"), out("u2"), in("u3")}},
			driver: "u2",
			loads:  []string{"u1", "u3"},
		},
		{
			name:   "input pin drives",
			net:    netlist.Net{Name: "n", ITerms: []netlist.ITerm{in("u1"), in("u2")}, BTerms: []netlist.BTerm{bt("pi", netlist.DirInput)}},
			driver: "pi",
			loads:  []string{"u1", "u2"},
		},
		{
			name:   "output pin is a load",
			net:    netlist.Net{Name: "n", ITerms: []netlist.ITerm{out("u1")}, BTerms: []netlist.BTerm{bt("po", netlist.DirOutput)}},
			driver: "u1",
			loads:  []string{"po"},
		},
		{
			name: "inout is a load",
			net: netlist.Net{Name: "n", ITerms: []netlist.ITerm{
				out("u1"),
				{Instance: "u2", Direction: netlist.DirInout},
			}, BTerms: []netlist.BTerm{bt("pio", netlist.DirInout)}},
			driver: "u1",
			loads:  []string{"u2", "pio"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := (&design{}).inst("u1", "u2", "u3").
				pin("pi", netlist.DirInput).pin("po", netlist.DirOutput).pin("pio", netlist.DirInout).
				net(tt.net)
			g := mustBuild(t, d, Options{}).Graph

			var loads []string
			for _, e := range g.Edges() {
				from, _ := g.Vertex(e.From)
				to, _ := g.Vertex(e.To)
				if from.Name != tt.driver {
					t.Errorf("edge source = %s, want sole source %s", from.Name, tt.driver)
				}
				loads = append(loads, to.Name)
			}
			if !reflect.DeepEqual(loads, tt.loads) {
				t.Errorf("loads = %v, want %v", loads, tt.loads)
			}

			c, err := Classify(tt.net)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if c.Driver.Name != tt.driver {
				t.Errorf("Classify driver = %s, want %s", c.Driver.Name, tt.driver)
			}
		})
	}
}

func TestSpecialNetsContributeNothing(t *testing.T) {
	d := scenario().net(netlist.Net{
		Name:    "N3",
		Special: true,
		// Would be ambiguous and dangling if it were classified.
		ITerms: []netlist.ITerm{out("A"), out("B"), in("ghost")},
	})
	res := mustBuild(t, d, Options{})

	if res.Graph.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", res.Graph.EdgeCount())
	}
	if res.Stats.SpecialNets != 1 {
		t.Errorf("SpecialNets = %d, want 1", res.Stats.SpecialNets)
	}
	for _, e := range res.Graph.Edges() {
		if e.Net == "N3" {
			t.Errorf("special net produced edge %+v", e)
		}
	}

	c, err := Classify(d.nets[2])
	if err != nil || !c.Special || len(c.Loads) != 0 {
		t.Errorf("Classify(special) = %+v, %v", c, err)
	}
}

func TestViolations(t *testing.T) {
	tests := []struct {
		name     string
		net      netlist.Net
		wantCode errors.Code
		wantKind errors.Violation
		wantMsg  string
	}{
		{
			name:     "two outputs",
			net:      netlist.Net{Name: "bad", ITerms: []netlist.ITerm{out("A"), out("B")}},
			wantCode: errors.ErrCodeStructuralViolation,
			wantKind: errors.ViolationAmbiguousDriver,
			wantMsg:  `net "bad": ambiguous driver (A, B)`,
		},
		{
			name:     "output and input pin",
			net:      netlist.Net{Name: "bad", ITerms: []netlist.ITerm{out("A")}, BTerms: []netlist.BTerm{bt("P", netlist.DirInput)}},
			wantCode: errors.ErrCodeStructuralViolation,
			wantKind: errors.ViolationAmbiguousDriver,
			wantMsg:  `(A, P)`,
		},
		{
			name:     "no driver",
			net:      netlist.Net{Name: "bad", ITerms: []netlist.ITerm{in("A"), in("B")}},
			wantCode: errors.ErrCodeStructuralViolation,
			wantKind: errors.ViolationUnconnectedNet,
			wantMsg:  `net "bad": unconnected net`,
		},
		{
			name:     "empty net",
			net:      netlist.Net{Name: "bad"},
			wantCode: errors.ErrCodeStructuralViolation,
			wantKind: errors.ViolationUnconnectedNet,
		},
		{
			name:     "unknown load",
			net:      netlist.Net{Name: "bad", ITerms: []netlist.ITerm{out("A"), in("ghost")}},
			wantCode: errors.ErrCodeReferentialIntegrity,
			wantKind: errors.ViolationDanglingTerminal,
			wantMsg:  `dangling terminal "ghost"`,
		},
		{
			name:     "unknown driver",
			net:      netlist.Net{Name: "bad", ITerms: []netlist.ITerm{out("ghost"), in("A")}},
			wantCode: errors.ErrCodeReferentialIntegrity,
			wantKind: errors.ViolationDanglingTerminal,
		},
		{
			name:     "instance terminal naming a pin",
			net:      netlist.Net{Name: "bad", ITerms: []netlist.ITerm{out("A"), in("P")}},
			wantCode: errors.ErrCodeReferentialIntegrity,
			wantKind: errors.ViolationDanglingTerminal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := scenario().net(tt.net)

			res, err := Build(context.Background(), d, Options{})
			if err == nil {
				t.Fatal("Build should fail")
			}
			if res != nil {
				t.Error("no result may be returned on failure")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.wantCode)
			}
			ne, ok := errors.AsNetError(err)
			if !ok {
				t.Fatalf("error %v should carry a *NetError", err)
			}
			if ne.Net != "bad" || ne.Kind != tt.wantKind {
				t.Errorf("NetError = %+v", ne)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestSkipInvalid(t *testing.T) {
	d := scenario().
		net(netlist.Net{Name: "amb", ITerms: []netlist.ITerm{out("A"), out("B")}}).
		net(netlist.Net{Name: "open", ITerms: []netlist.ITerm{in("B")}}).
		net(netlist.Net{Name: "dangling", ITerms: []netlist.ITerm{out("B"), in("ghost")}}).
		net(netlist.Net{Name: "ok", ITerms: []netlist.ITerm{out("B"), in("A")}})

	res := mustBuild(t, d, Options{Policy: SkipInvalid})

	want := [][2]string{{"P", "A"}, {"A", "B"}, {"B", "A"}}
	if got := res.Graph.EdgePairs(); !reflect.DeepEqual(got, want) {
		t.Errorf("EdgePairs = %v, want %v", got, want)
	}

	var nets []string
	for _, v := range res.Violations {
		nets = append(nets, v.Net)
	}
	if !reflect.DeepEqual(nets, []string{"amb", "open", "dangling"}) {
		t.Errorf("violations = %v", nets)
	}
	if res.Stats.InvalidNets != 3 {
		t.Errorf("InvalidNets = %d, want 3", res.Stats.InvalidNets)
	}
}

func TestNameCollision(t *testing.T) {
	tests := []struct {
		name string
		d    *design
	}{
		{"instance and pin", (&design{}).inst("x").pin("x", netlist.DirInput)},
		{"two instances", (&design{}).inst("x", "x")},
		{"two pins", (&design{}).pin("x", netlist.DirInput).pin("x", netlist.DirOutput)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, policy := range []Policy{FailFast, SkipInvalid} {
				_, err := Build(context.Background(), tt.d, Options{Policy: policy})
				if !errors.Is(err, errors.ErrCodeNameCollision) {
					t.Errorf("%v: err = %v, want NAME_COLLISION", policy, err)
				}
				if !stderrors.Is(err, graph.ErrDuplicateName) {
					t.Errorf("%v: err should wrap graph.ErrDuplicateName", policy)
				}
			}
		})
	}
}

func TestDuplicateLoadsAndSelfLoops(t *testing.T) {
	d := (&design{}).inst("A", "B").
		net(netlist.Net{Name: "n", ITerms: []netlist.ITerm{
			out("A"),
			{Instance: "B", Pin: "A1", Direction: netlist.DirInput},
			{Instance: "B", Pin: "A2", Direction: netlist.DirInput},
			{Instance: "A", Pin: "B", Direction: netlist.DirInput},
		}})

	g := mustBuild(t, d, Options{}).Graph
	want := [][2]string{{"A", "B"}, {"A", "A"}}
	if got := g.EdgePairs(); !reflect.DeepEqual(got, want) {
		t.Errorf("EdgePairs = %v, want %v", got, want)
	}
}

func TestUndirected(t *testing.T) {
	g := mustBuild(t, scenario(), Options{Undirected: true}).Graph

	if g.Directed() {
		t.Error("Directed() = true, want false")
	}
	// Driver-to-load pairing still decides adjacency.
	e := g.Edges()[0]
	from, _ := g.Vertex(e.From)
	if from.Name != "P" {
		t.Errorf("first edge stored from %s, want P", from.Name)
	}
	a, _ := g.Lookup("A")
	if got := len(g.Neighbors(a)); got != 2 {
		t.Errorf("Neighbors(A) = %d, want 2", got)
	}
}

func TestIdempotence(t *testing.T) {
	for _, canonical := range []bool{false, true} {
		t.Run(fmt.Sprintf("canonical=%v", canonical), func(t *testing.T) {
			d := scenario()
			first := mustBuild(t, d, Options{Canonical: canonical}).Graph
			second := mustBuild(t, d, Options{Canonical: canonical}).Graph

			if !reflect.DeepEqual(first.Vertices(), second.Vertices()) {
				t.Error("vertex order differs between builds")
			}
			if !reflect.DeepEqual(first.Edges(), second.Edges()) {
				t.Error("edges differ between builds")
			}
		})
	}
}

func TestCanonicalIgnoresProviderOrder(t *testing.T) {
	forward := scenario()
	reversed := (&design{}).
		inst("B", "A").
		pin("P", netlist.DirInput).
		net(forward.nets[1]).
		net(forward.nets[0])

	a := mustBuild(t, forward, Options{Canonical: true}).Graph
	b := mustBuild(t, reversed, Options{Canonical: true}).Graph

	if !reflect.DeepEqual(a.Vertices(), b.Vertices()) {
		t.Errorf("vertices differ: %v vs %v", a.Vertices(), b.Vertices())
	}
	if !reflect.DeepEqual(a.EdgePairs(), b.EdgePairs()) {
		t.Errorf("edges differ: %v vs %v", a.EdgePairs(), b.EdgePairs())
	}
}

// chain builds u0 -> u1 -> ... -> u(n-1) with one net per stage, plus a
// special net every tenth stage.
func chain(n int) *design {
	d := &design{}
	for i := range n {
		d.inst(fmt.Sprintf("u%d", i))
	}
	for i := 0; i+1 < n; i++ {
		d.net(netlist.Net{
			Name:   fmt.Sprintf("n%d", i),
			ITerms: []netlist.ITerm{out(fmt.Sprintf("u%d", i)), in(fmt.Sprintf("u%d", i+1))},
		})
		if i%10 == 0 {
			d.net(netlist.Net{Name: fmt.Sprintf("vdd%d", i), Special: true})
		}
	}
	return d
}

func TestParallelMatchesSequential(t *testing.T) {
	d := chain(500)
	seq := mustBuild(t, d, Options{})

	for _, workers := range []int{2, 3, 8, 1000} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			par := mustBuild(t, d, Options{Workers: workers})
			if !reflect.DeepEqual(seq.Graph.Edges(), par.Graph.Edges()) {
				t.Error("parallel edges differ from sequential")
			}
			if seq.Stats.SpecialNets != par.Stats.SpecialNets {
				t.Errorf("SpecialNets = %d, want %d", par.Stats.SpecialNets, seq.Stats.SpecialNets)
			}
		})
	}
}

func TestParallelReportsFirstViolation(t *testing.T) {
	d := chain(200)
	// Break two nets; the earlier one must be reported.
	d.nets[40].ITerms = append(d.nets[40].ITerms, out("u0"))
	d.nets[150].ITerms = nil
	want := d.nets[40].Name

	for _, workers := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			_, err := Build(context.Background(), d, Options{Workers: workers})
			ne, ok := errors.AsNetError(err)
			if !ok {
				t.Fatalf("err = %v, want a net violation", err)
			}
			if ne.Net != want {
				t.Errorf("reported net %s, want %s", ne.Net, want)
			}
		})
	}
}

func TestParallelSkipInvalid(t *testing.T) {
	d := chain(100)
	d.nets[5].ITerms = nil
	d.nets[70].ITerms = append(d.nets[70].ITerms, in("ghost"))

	seq := mustBuild(t, d, Options{Policy: SkipInvalid})
	par := mustBuild(t, d, Options{Policy: SkipInvalid, Workers: 4})

	if !reflect.DeepEqual(seq.Violations, par.Violations) {
		t.Errorf("violations differ: %v vs %v", seq.Violations, par.Violations)
	}
	if !reflect.DeepEqual(seq.Graph.Edges(), par.Graph.Edges()) {
		t.Error("edges differ")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{0, 4} {
		if _, err := Build(ctx, chain(10), Options{Workers: workers}); !stderrors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: err = %v, want context.Canceled", workers, err)
		}
	}
}

type failingProvider struct {
	design
	err error
}

func (f *failingProvider) Nets() ([]netlist.Net, error) { return nil, f.err }

func TestProviderError(t *testing.T) {
	cause := stderrors.New("database offline")
	_, err := Build(context.Background(), &failingProvider{err: cause}, Options{})

	if !errors.Is(err, errors.ErrCodeProvider) {
		t.Errorf("code = %v, want PROVIDER_ERROR", errors.GetCode(err))
	}
	if !stderrors.Is(err, cause) {
		t.Error("provider error should be preserved as cause")
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", FailFast, false},
		{"fail-fast", FailFast, false},
		{"skip-invalid", SkipInvalid, false},
		{"SKIP", SkipInvalid, false},
		{"lenient", FailFast, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}
