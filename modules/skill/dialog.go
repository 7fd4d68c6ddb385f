package skill

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	dialogNowPlaying = "now.playing"
	dialogNotFound   = "not.found"
)

// Dialogs renders localized templates. Each template file holds one variant
// per line and {{name}} placeholders.
type Dialogs struct {
	templates map[string][]string
	intn      func(int) int
}

func loadDialogs(res *resources, names ...string) (*Dialogs, error) {
	d := &Dialogs{
		templates: make(map[string][]string, len(names)),
		intn:      rand.IntN,
	}

	for _, name := range names {
		data, err := res.read(name + ".dialog")
		if err != nil {
			return nil, fmt.Errorf("failed to read dialog %s: %w", name, err)
		}

		var lines []string
		for _, l := range strings.Split(string(data), "\n") {
			if l = strings.TrimSpace(l); l != "" && !strings.HasPrefix(l, "#") {
				lines = append(lines, l)
			}
		}

		if len(lines) == 0 {
			return nil, fmt.Errorf("dialog %s is empty", name)
		}

		d.templates[name] = lines
	}

	return d, nil
}

// Render picks a variant of the named dialog and substitutes vars.
func (d *Dialogs) Render(name string, vars map[string]string) (string, error) {
	lines, ok := d.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown dialog %q", name)
	}

	text := lines[d.intn(len(lines))]
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}

	return text, nil
}
