// Package epub assembles a compiled document's XHTML, table of
// contents, and metadata into an EPUB 3 archive: a zip file holding
// the mimetype marker, a container pointer, an OPF package document, a
// navigation document, a fixed stylesheet, and the content XHTML
// itself.
package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/aozora-toolkit/compiler/internal/xhtml"
)

// epochFallback is used when Metadata.Modified is empty, so test
// output (and any other caller that cares about reproducibility) does
// not depend on wall-clock time.
const epochFallback = "2019-04-01T00:00:00Z"

// Metadata is the book-level information the package document records.
type Metadata struct {
	Title    string
	Author   string
	Modified string // free-form date string, parsed via dateparse; empty uses epochFallback
}

// Package writes a complete .epub archive to w.
func Package(w io.Writer, body string, toc []xhtml.TocEntry, meta Metadata) error {
	zw := zip.NewWriter(w)

	// mimetype must be first and stored, not deflated, per the EPUB spec.
	mimeWriter, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("epub: writing mimetype entry: %w", err)
	}
	if _, err := mimeWriter.Write([]byte("application/epub+zip")); err != nil {
		return fmt.Errorf("epub: writing mimetype body: %w", err)
	}

	id := uuid.New().String()
	modified, err := resolveModified(meta.Modified)
	if err != nil {
		return fmt.Errorf("epub: parsing modified date %q: %w", meta.Modified, err)
	}

	files := []struct {
		name string
		data string
	}{
		{"META-INF/container.xml", containerXML()},
		{"item/standard.opf", opfXML(meta, id, modified)},
		{"item/nav.xhtml", navXHTML(toc)},
		{"item/style/book-style.css", bookStyleCSS()},
		{"item/xhtml/content.xhtml", body},
	}

	for _, f := range files {
		fw, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("epub: creating entry %s: %w", f.name, err)
		}
		if _, err := fw.Write([]byte(f.data)); err != nil {
			return fmt.Errorf("epub: writing entry %s: %w", f.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("epub: finalizing archive: %w", err)
	}
	return nil
}

// resolveModified parses a free-form user-supplied date with
// dateparse and re-serializes it to RFC3339, defaulting to a fixed
// epoch when raw is empty so test output is reproducible.
func resolveModified(raw string) (string, error) {
	if raw == "" {
		return epochFallback, nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(time.RFC3339), nil
}

func containerXML() string {
	return `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<rootfiles>
<rootfile full-path="item/standard.opf" media-type="application/oebps-package+xml"/>
</rootfiles>
</container>`
}

func opfXML(meta Metadata, id, modified string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" xml:lang="ja" unique-identifier="unique-id">
<metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title id="title">%s</dc:title>
<dc:creator id="creator">%s</dc:creator>
<dc:language>ja</dc:language>
<dc:identifier id="unique-id">urn:uuid:%s</dc:identifier>
<meta property="dcterms:modified">%s</meta>
</metadata>
<manifest>
<item media-type="application/xhtml+xml" id="nav" href="nav.xhtml" properties="nav"/>
<item id="style" href="style/book-style.css" media-type="text/css"/>
<item id="content" href="xhtml/content.xhtml" media-type="application/xhtml+xml"/>
</manifest>
<spine page-progression-direction="rtl">
<itemref idref="nav"/>
<itemref idref="content"/>
</spine>
</package>`, meta.Title, meta.Author, id, modified)
}

func navXHTML(toc []xhtml.TocEntry) string {
	var items string
	if len(toc) == 0 {
		items = `<li><a href="xhtml/content.xhtml">本文</a></li>` + "\n"
	} else {
		for _, entry := range toc {
			items += fmt.Sprintf(`<li><a href="xhtml/content.xhtml#%s">%s</a></li>`+"\n", entry.ID, entry.Text)
		}
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" lang="ja" xml:lang="ja">
<head>
<meta charset="UTF-8"/>
<title>Navigation</title>
</head>
<body>
<nav epub:type="toc" id="toc">
<h1>目次</h1>
<ol>
%s</ol>
</nav>
</body>
</html>`, items)
}

func bookStyleCSS() string {
	return `@charset "utf-8";
html {
  writing-mode: vertical-rl;
  -webkit-writing-mode: vertical-rl;
  -epub-writing-mode: vertical-rl;
}
body {
  font-family: serif;
}
.jisage-1 { margin-inline-start: 1em; }
.jisage-2 { margin-inline-start: 2em; }
.jisage-3 { margin-inline-start: 3em; }
.chitsuki-1 { margin-block-end: 1em; text-align: right; }
.kakomi { border: 1px solid; padding: 0.5em; }
.yokogumi { writing-mode: horizontal-tb; }
.midashi-dogyo { font-weight: bold; }
.bold { font-weight: bold; }
.italic { font-style: italic; }
.em { text-emphasis-style: filled; }
.bousen { text-decoration: underline; text-decoration-style: solid; text-decoration-skip-ink: none; }
.page-break { break-after: page; }
.kaimihiraki { height: 100vh; width: 100%; break-after: always; }
.column-break { break-after: column; }
`
}
