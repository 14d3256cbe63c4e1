package model_test

import (
	"encoding/json"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/albumstore/model"
)

func TestParseDate(t *testing.T) {
	c := qt.New(t)

	d, err := model.ParseDate("1965-02-01")
	c.Assert(err, qt.IsNil)
	c.Assert(d, qt.Equals, model.NewDate(1965, time.February, 1))
	c.Assert(d.Year(), qt.Equals, 1965)
	c.Assert(d.Month(), qt.Equals, time.February)
	c.Assert(d.Day(), qt.Equals, 1)
	c.Assert(d.String(), qt.Equals, "1965-02-01")

	_, err = model.ParseDate("01/02/1965")
	c.Assert(err, qt.ErrorMatches, `invalid date "01/02/1965": .*`)
}

func TestDateOf_KeepsWallClockDate(t *testing.T) {
	c := qt.New(t)

	loc := time.FixedZone("UTC-10", -10*60*60)
	late := time.Date(2018, time.May, 8, 23, 30, 0, 0, loc)
	c.Assert(model.DateOf(late), qt.Equals, model.NewDate(2018, time.May, 8))
}

func TestDateZero(t *testing.T) {
	c := qt.New(t)

	var d model.Date
	c.Assert(d.IsZero(), qt.IsTrue)
	c.Assert(d.String(), qt.Equals, "null")
	v, err := d.Value()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.IsNil)

	c.Assert(model.Today().IsZero(), qt.IsFalse)
}

func TestDateOrdering(t *testing.T) {
	c := qt.New(t)

	supreme := model.NewDate(1965, time.February, 1)
	ghosts := model.NewDate(2018, time.May, 8)
	c.Assert(supreme.Before(ghosts), qt.IsTrue)
	c.Assert(ghosts.After(supreme), qt.IsTrue)
	c.Assert(ghosts.Before(ghosts), qt.IsFalse)
}

func TestDateValue(t *testing.T) {
	c := qt.New(t)

	v, err := model.NewDate(2018, time.May, 8).Value()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, "2018-05-08")
}

func TestDateScan(t *testing.T) {
	want := model.NewDate(1965, time.February, 1)

	tests := []struct {
		name string
		src  any
		want model.Date
	}{
		{name: "nil", src: nil, want: model.Date{}},
		{name: "time", src: time.Date(1965, time.February, 1, 0, 0, 0, 0, time.UTC), want: want},
		{name: "string", src: "1965-02-01", want: want},
		{name: "bytes", src: []byte("1965-02-01"), want: want},
		{name: "timestamp string", src: "1965-02-01T00:00:00Z", want: want},
		{name: "datetime string", src: "1965-02-01 00:00:00", want: want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			d := model.NewDate(2000, time.January, 1)
			c.Assert(d.Scan(tt.src), qt.IsNil)
			c.Assert(d, qt.Equals, tt.want)
		})
	}
}

func TestDateScan_Errors(t *testing.T) {
	c := qt.New(t)

	var d model.Date
	c.Assert(d.Scan(int64(19650201)), qt.ErrorMatches, `cannot scan int64 into Date`)
	c.Assert(d.Scan("yesterday"), qt.ErrorMatches, `invalid date "yesterday": .*`)
}

func TestDateJSON(t *testing.T) {
	c := qt.New(t)

	type release struct {
		On model.Date `json:"on"`
	}

	data, err := json.Marshal(release{On: model.NewDate(2018, time.May, 8)})
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"on":"2018-05-08"}`)

	var r release
	c.Assert(json.Unmarshal([]byte(`{"on":"1965-02-01"}`), &r), qt.IsNil)
	c.Assert(r.On, qt.Equals, model.NewDate(1965, time.February, 1))

	c.Assert(json.Unmarshal([]byte(`{"on":""}`), &r), qt.IsNil)
	c.Assert(r.On.IsZero(), qt.IsTrue)
}
