package skill

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed locale
var localeFS embed.FS

// resources reads locale files from an optional override directory before
// falling back to the embedded set.
type resources struct {
	override fs.FS
	embedded fs.FS
	lang     string
}

func newResources(dir, lang string) (*resources, error) {
	embedded, err := fs.Sub(localeFS, "locale")
	if err != nil {
		return nil, err
	}

	r := &resources{embedded: embedded, lang: strings.ToLower(lang)}
	if dir != "" {
		r.override = os.DirFS(dir)
	}

	return r, nil
}

// read returns the contents of <lang>/<name>.
func (r *resources) read(name string) ([]byte, error) {
	p := path.Join(r.lang, name)

	if r.override != nil {
		data, err := fs.ReadFile(r.override, p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fs.ReadFile(r.embedded, p)
}
