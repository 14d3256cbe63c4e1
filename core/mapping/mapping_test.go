package mapping_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-extras/go-kit/must"

	"github.com/stokaro/albumstore/core/goschema"
	"github.com/stokaro/albumstore/core/goschema/testutil"
	"github.com/stokaro/albumstore/core/mapping"
)

type day string

func (day) StorageKind() mapping.Kind { return mapping.KindDate }

type track struct {
	ID       *int64
	Name     string
	Position int
	Live     bool
	Recorded day
	Tags     []string
}

func trackID(t *track) (int64, bool) {
	if t.ID == nil {
		return 0, false
	}
	return *t.ID, true
}

func setTrackID(t *track, id int64) { t.ID = &id }

func trackBuilder() *mapping.Builder[track] {
	return mapping.New("Track", func() *track { return &track{} }).
		ID("ID", "track_id", mapping.Increment, trackID, setTrackID).
		Column(mapping.Attr("Name", func(t *track) *string { return &t.Name }).NotNull().Length(120)).
		Column(mapping.Attr("Position", func(t *track) *int { return &t.Position })).
		Column(mapping.Attr("Live", func(t *track) *bool { return &t.Live }).Name("is_live")).
		Column(mapping.Attr("Recorded", func(t *track) *day { return &t.Recorded }))
}

func TestBuild(t *testing.T) {
	c := qt.New(t)

	m, err := trackBuilder().Build()
	c.Assert(err, qt.IsNil)

	c.Assert(m.EntityName(), qt.Equals, "Track")
	c.Assert(m.TableName(), qt.Equals, "track")
	c.Assert(m.Strategy(), qt.Equals, mapping.Increment)
	c.Assert(m.IDColumn(), qt.DeepEquals, mapping.ColumnInfo{
		Field: "ID", Name: "track_id", Kind: mapping.KindInt64, Primary: true,
	})
	c.Assert(m.Columns(), qt.DeepEquals, []mapping.ColumnInfo{
		{Field: "Name", Name: "name", Kind: mapping.KindString, Length: 120},
		{Field: "Position", Name: "position", Kind: mapping.KindInt64, Nullable: true},
		{Field: "Live", Name: "is_live", Kind: mapping.KindBool, Nullable: true},
		{Field: "Recorded", Name: "recorded", Kind: mapping.KindDate, Nullable: true},
	})
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() *mapping.Builder[track]
		message string
	}{
		{
			name: "missing identifier",
			builder: func() *mapping.Builder[track] {
				return mapping.New("Track", func() *track { return &track{} })
			},
			message: `(?s).*identifier is required.*`,
		},
		{
			name: "missing factory",
			builder: func() *mapping.Builder[track] {
				return mapping.New[track]("Track", nil).ID("ID", "id", mapping.Increment, trackID, setTrackID)
			},
			message: `(?s).*factory function is required.*`,
		},
		{
			name: "unknown strategy",
			builder: func() *mapping.Builder[track] {
				return mapping.New("Track", func() *track { return &track{} }).ID("ID", "id", "sequence", trackID, setTrackID)
			},
			message: `(?s).*unknown identifier strategy "sequence".*`,
		},
		{
			name: "duplicate column",
			builder: func() *mapping.Builder[track] {
				return trackBuilder().Column(mapping.Attr("Name", func(t *track) *string { return &t.Name }).Name("track_id"))
			},
			message: `(?s).*column track_id is mapped by both ID and Name.*`,
		},
		{
			name: "unsupported type",
			builder: func() *mapping.Builder[track] {
				return trackBuilder().Column(mapping.Attr("Tags", func(t *track) *[]string { return &t.Tags }))
			},
			message: `(?s).*attribute Tags: unsupported type \[\]string.*`,
		},
		{
			name: "empty table",
			builder: func() *mapping.Builder[track] {
				return trackBuilder().Table("")
			},
			message: `(?s).*table name is required.*`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			m, err := tt.builder().Build()
			c.Assert(m, qt.IsNil)
			c.Assert(err, qt.ErrorMatches, `invalid mapping for entity Track: `+tt.message)
		})
	}
}

func TestEntityAccessors(t *testing.T) {
	c := qt.New(t)
	m := must.Must(trackBuilder().Build())

	tr := m.New()
	_, ok := m.ID(tr)
	c.Assert(ok, qt.IsFalse)

	m.SetID(tr, 7)
	id, ok := m.ID(tr)
	c.Assert(ok, qt.IsTrue)
	c.Assert(id, qt.Equals, int64(7))

	tr.Name = "Blue in Green"
	tr.Position = 3
	tr.Recorded = "1959-03-02"
	c.Assert(m.Values(tr), qt.DeepEquals, []any{"Blue in Green", 3, false, day("1959-03-02")})

	cp := m.New()
	m.CopyState(cp, tr)
	c.Assert(cp.Name, qt.Equals, "Blue in Green")
	c.Assert(cp.Position, qt.Equals, 3)
	c.Assert(cp.ID, qt.IsNil)
}

func TestScanTargets(t *testing.T) {
	c := qt.New(t)
	m := must.Must(trackBuilder().Build())

	tr := m.New()
	targets, apply := m.ScanTargets(tr)
	c.Assert(targets, qt.HasLen, 5)

	srcs := []any{int64(42), []byte("So What"), int64(1), nil, "1959-03-02"}
	for i, target := range targets {
		scanner, ok := target.(interface{ Scan(any) error })
		c.Assert(ok, qt.IsTrue)
		c.Assert(scanner.Scan(srcs[i]), qt.IsNil)
	}
	apply()

	c.Assert(*tr.ID, qt.Equals, int64(42))
	c.Assert(tr.Name, qt.Equals, "So What")
	c.Assert(tr.Position, qt.Equals, 1)
	c.Assert(tr.Live, qt.IsFalse)
	c.Assert(tr.Recorded, qt.Equals, day("1959-03-02"))
}

func TestVerify(t *testing.T) {
	m := must.Must(trackBuilder().Table("tracks").Build())

	tests := []struct {
		name    string
		source  string
		message string
	}{
		{
			name: "matching annotations",
			source: `package model

//migrator:schema:table name="tracks"
type Track struct {
	//migrator:schema:field name="track_id" type="BIGINT" primary="true" generator="increment"
	ID *int64
	//migrator:schema:field name="name" type="VARCHAR(120)" not_null="true"
	Name string
	Position int
	//migrator:schema:field name="is_live"
	Live bool
	Recorded Day
}`,
		},
		{
			name: "missing table",
			source: `package model

//migrator:schema:table name="songs"
type Track struct {}`,
			message: `entity Track: table tracks is not declared in the annotated sources`,
		},
		{
			name: "nullability and generator drift",
			source: `package model

//migrator:schema:table name="tracks"
type Track struct {
	//migrator:schema:field name="track_id" primary="true" generator="assigned"
	ID *int64
	Name string
	Position int
	//migrator:schema:field name="is_live"
	Live bool
	Recorded Day
	Extra string
}`,
			message: `(?s)entity Track does not match its annotations: .*generator "assigned".*column name: annotation nullable=true, mapping nullable=false.*column extra is declared but not mapped.*`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			db, err := goschema.ParseFile(testutil.CreateTempGoFile(t, tt.source))
			c.Assert(err, qt.IsNil)

			err = mapping.Verify(m, &db)
			if tt.message == "" {
				c.Assert(err, qt.IsNil)
				return
			}
			c.Assert(err, qt.ErrorMatches, tt.message)
		})
	}
}

func TestSetAndCatalog(t *testing.T) {
	c := qt.New(t)
	m := must.Must(trackBuilder().Build())

	set := mapping.NewSet(m, m)
	c.Assert(set.All(), qt.HasLen, 1)

	d, ok := set.ByName("Track")
	c.Assert(ok, qt.IsTrue)
	c.Assert(d.TableName(), qt.Equals, "track")

	typed, ok := mapping.For[track](set)
	c.Assert(ok, qt.IsTrue)
	c.Assert(typed, qt.Equals, m)

	_, ok = mapping.For[struct{ X int }](set)
	c.Assert(ok, qt.IsFalse)

	mapping.Register(m)
	mapping.Register(m) // same type again is a no-op
	got, ok := mapping.Lookup("Track")
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.Equals, mapping.Descriptor(m))

	other := must.Must(mapping.New("Track", func() *struct{ ID int64 } { return nil }).
		ID("ID", "id", mapping.Assigned,
			func(e *struct{ ID int64 }) (int64, bool) { return e.ID, true },
			func(e *struct{ ID int64 }, id int64) { e.ID = id }).
		Build())
	c.Assert(func() { mapping.Register(other) }, qt.PanicMatches, `mapping: Register called twice for entity Track`)
}

func TestKindString(t *testing.T) {
	c := qt.New(t)
	c.Assert(mapping.KindDate.String(), qt.Equals, "date")
	c.Assert(mapping.KindInvalid.String(), qt.Equals, "invalid")
}
