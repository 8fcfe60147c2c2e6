// Package gamelist loads, merges and persists the per-system gamelist.xml
// consumed by the emulator front-end. The file may carry two top-level
// elements (<alternativeEmulator> and <gameList>), so parsing wraps the body
// in a synthetic root before handing it to encoding/xml.
package gamelist

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"kakehashi/backup"
	"kakehashi/utils"
)

const defaultDecl = `<?xml version="1.0"?>`

var declRe = regexp.MustCompile(`<\?xml[^?]*\?>`)

// ParseError reports a malformed gamelist file. Callers must surface it and
// refuse to save over the unreadable file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed gamelist %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Field is a child element the editor does not model, preserved verbatim so
// a save never drops scraper fields like <playcount> or <favorite>.
type Field struct {
	Name  string
	Inner string // raw inner XML, still escaped
}

// Entry is one game record keyed by Path.
type Entry struct {
	Path        string      `json:"path"`
	Name        string      `json:"name"`
	Desc        string      `json:"desc"`
	Image       string      `json:"image"`
	ReleaseDate ReleaseDate `json:"releasedate"`
	Developer   string      `json:"developer"`
	Publisher   string      `json:"publisher"`
	Genres      []string    `json:"genres"`
	Extra       []Field     `json:"-"`
}

// Document is the ordered set of entries backed by one gamelist.xml.
type Document struct {
	Decl           string
	AltEmulator    string // raw inner XML of <alternativeEmulator>
	HasAltEmulator bool
	Entries        []Entry
}

// wire format

type extraXML struct {
	XMLName xml.Name
	Inner   string `xml:",innerxml"`
}

type gameXML struct {
	XMLName     xml.Name   `xml:"game"`
	Path        string     `xml:"path"`
	Name        string     `xml:"name,omitempty"`
	Desc        string     `xml:"desc,omitempty"`
	Image       string     `xml:"image,omitempty"`
	ReleaseDate string     `xml:"releasedate,omitempty"`
	Developer   string     `xml:"developer,omitempty"`
	Publisher   string     `xml:"publisher,omitempty"`
	Genre       string     `xml:"genre,omitempty"`
	Extra       []extraXML `xml:",any"`
}

type gameListXML struct {
	XMLName xml.Name  `xml:"gameList"`
	Games   []gameXML `xml:"game"`
}

type altEmulatorXML struct {
	XMLName xml.Name `xml:"alternativeEmulator"`
	Inner   string   `xml:",innerxml"`
}

type rootXML struct {
	XMLName     xml.Name        `xml:"_root_"`
	AltEmulator *altEmulatorXML `xml:"alternativeEmulator"`
	GameList    *gameListXML    `xml:"gameList"`
}

// Load parses the gamelist at path. A missing file yields an empty document,
// not an error: a freshly configured system simply has no games yet.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Document{Decl: defaultDecl}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read gamelist %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes gamelist content. The path is only used in error messages.
func Parse(data []byte, path string) (*Document, error) {
	content := strings.TrimPrefix(string(data), "\ufeff")

	decl := defaultDecl
	if m := declRe.FindString(content); m != "" {
		decl = m
	}
	body := strings.TrimSpace(declRe.ReplaceAllString(content, ""))

	var root rootXML
	if err := xml.Unmarshal([]byte("<_root_>"+body+"</_root_>"), &root); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	doc := &Document{Decl: decl}
	if root.AltEmulator != nil {
		doc.HasAltEmulator = true
		doc.AltEmulator = root.AltEmulator.Inner
	}
	if root.GameList != nil {
		doc.Entries = make([]Entry, 0, len(root.GameList.Games))
		for _, g := range root.GameList.Games {
			doc.Entries = append(doc.Entries, entryFromXML(g))
		}
	}
	return doc, nil
}

func entryFromXML(g gameXML) Entry {
	e := Entry{
		Path:      utils.NormalizeRomPath(g.Path),
		Name:      g.Name,
		Desc:      g.Desc,
		Image:     g.Image,
		Developer: g.Developer,
		Publisher: g.Publisher,
		Genres:    splitGenres(g.Genre),
	}
	for _, x := range g.Extra {
		e.Extra = append(e.Extra, Field{Name: x.XMLName.Local, Inner: x.Inner})
	}

	date, err := ParseReleaseDate(g.ReleaseDate)
	if err != nil {
		// Unrecognized date text is carried as an opaque field rather than
		// dropped on the next save.
		e.Extra = append(e.Extra, Field{Name: "releasedate", Inner: escapeXML(g.ReleaseDate)})
	} else {
		e.ReleaseDate = date
	}
	return e
}

func entryToXML(e Entry) gameXML {
	g := gameXML{
		Path:        e.Path,
		Name:        e.Name,
		Desc:        e.Desc,
		Image:       e.Image,
		ReleaseDate: e.ReleaseDate.String(),
		Developer:   e.Developer,
		Publisher:   e.Publisher,
		Genre:       strings.Join(e.Genres, ","),
	}
	for _, f := range e.Extra {
		g.Extra = append(g.Extra, extraXML{XMLName: xml.Name{Local: f.Name}, Inner: f.Inner})
	}
	return g
}

func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	var genres []string
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			genres = append(genres, tag)
		}
	}
	return genres
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Index returns the position of the entry with the given path, or -1.
func (d *Document) Index(path string) int {
	path = utils.NormalizeRomPath(path)
	for i := range d.Entries {
		if d.Entries[i].Path == path {
			return i
		}
	}
	return -1
}

// Find returns a copy of the entry with the given path.
func (d *Document) Find(path string) (Entry, bool) {
	if i := d.Index(path); i >= 0 {
		return d.Entries[i], true
	}
	return Entry{}, false
}

// Upsert updates the entry matching e.Path in place, preserving its position,
// or appends e when no entry has that path. Add and edit share this one path.
func (d *Document) Upsert(e Entry) {
	e.Path = utils.NormalizeRomPath(e.Path)
	if i := d.Index(e.Path); i >= 0 {
		if e.Extra == nil {
			// The editing form does not carry unmodeled fields; keep them.
			e.Extra = d.Entries[i].Extra
		}
		d.Entries[i] = e
		return
	}
	d.Entries = append(d.Entries, e)
}

// Remove deletes the entry with the given path. Reports whether it existed.
func (d *Document) Remove(path string) bool {
	if i := d.Index(path); i >= 0 {
		d.Entries = append(d.Entries[:i], d.Entries[i+1:]...)
		return true
	}
	return false
}

// Serialize renders the document in the on-disk dialect: preserved XML
// declaration, optional <alternativeEmulator>, then the tab-indented
// <gameList>. Semantically absent fields are omitted entirely.
func (d *Document) Serialize() ([]byte, error) {
	parts := []string{d.Decl}

	if d.HasAltEmulator {
		alt, err := xml.MarshalIndent(&altEmulatorXML{Inner: d.AltEmulator}, "", "\t")
		if err != nil {
			return nil, fmt.Errorf("failed to serialize alternativeEmulator: %w", err)
		}
		parts = append(parts, string(alt))
	}

	list := gameListXML{Games: make([]gameXML, 0, len(d.Entries))}
	for _, e := range d.Entries {
		list.Games = append(list.Games, entryToXML(e))
	}
	data, err := xml.MarshalIndent(&list, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize gameList: %w", err)
	}
	parts = append(parts, string(data))

	return []byte(strings.Join(parts, "\n") + "\n"), nil
}

// Save rotates a backup of the current file, then writes the document
// atomically: serialize to a temp file in the destination directory and
// rename it over the target, so a crash mid-write never truncates the list.
func Save(d *Document, path string, backupMax int) error {
	data, err := d.Serialize()
	if err != nil {
		return err
	}

	if err := backup.Rotate(path, backupMax); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create gamelist directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gamelist-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write gamelist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp gamelist: %w", err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace gamelist %s: %w", path, err)
	}
	return nil
}
