// Package model holds the persistent entities of the album store and their mappings.
package model

import (
	"fmt"

	"github.com/go-extras/go-kit/must"

	"github.com/stokaro/albumstore/core/mapping"
)

// Album is a music album.
//
//migrator:schema:table name="albums"
type Album struct {
	//migrator:schema:field name="album_id" type="BIGINT" primary="true" generator="increment" platform.sqlite.type="INTEGER"
	ID *int64

	Title string

	//migrator:schema:field name="release_date" type="DATE" not_null="true"
	ReleaseDate Date
}

// NewAlbum returns an album without identifier.
func NewAlbum(title string, releaseDate Date) *Album {
	return &Album{Title: title, ReleaseDate: releaseDate}
}

func (a *Album) String() string {
	id := "null"
	if a.ID != nil {
		id = fmt.Sprint(*a.ID)
	}
	return fmt.Sprintf("Album [id=%s, title=%s, releaseDate=%s]", id, a.Title, a.ReleaseDate)
}

// AlbumMapping maps Album onto the albums table.
var AlbumMapping = must.Must(mapping.New("Album", func() *Album { return &Album{} }).
	Table("albums").
	ID("ID", "album_id", mapping.Increment, albumID, setAlbumID).
	Column(mapping.Attr("Title", func(a *Album) *string { return &a.Title })).
	Column(mapping.Attr("ReleaseDate", func(a *Album) *Date { return &a.ReleaseDate }).
		Name("release_date").NotNull()).
	Build())

func init() {
	mapping.Register(AlbumMapping)
}

func albumID(a *Album) (int64, bool) {
	if a.ID == nil {
		return 0, false
	}
	return *a.ID, true
}

func setAlbumID(a *Album, id int64) {
	a.ID = &id
}
