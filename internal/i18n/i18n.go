// Package i18n resolves the bot's user-facing texts from YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

const localesDir = "locales"

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	Tf(key string, args ...any) string
	Lang() string
}

// Manager holds one flattened catalog per language and picks the closest one for a Telegram language code.
type Manager struct {
	catalogs map[language.Tag]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// Load loads the catalogs compiled into the binary.
func Load(defaultLang string) (*Manager, error) {
	return LoadFS(locales, localesDir, defaultLang)
}

// LoadFS loads every YAML catalog of dir in fsys. Each file maps language tags to nested keys.
func LoadFS(fsys fs.FS, dir, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = "en"
	}

	fallback, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("i18n: default language %q: %w", defaultLang, err)
	}

	catalogs, err := readCatalogs(fsys, dir)
	if err != nil {
		return nil, err
	}

	if _, ok := catalogs[fallback]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	// The matcher falls back to the first tag, so the default goes first.
	tags := []language.Tag{fallback}
	for tag := range catalogs {
		if tag != fallback {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags[1:], func(i, j int) bool { return tags[i+1].String() < tags[j+1].String() })

	return &Manager{
		catalogs: catalogs,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
	}, nil
}

// Translator returns the translator closest to lang, e.g. "ru-RU" resolves to "ru".
// Unknown or malformed codes get the default language.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{printer: message.NewPrinter(language.English)}
	}

	tag := m.tags[0]
	if requested, err := language.Parse(strings.TrimSpace(lang)); err == nil {
		if _, index, confidence := m.matcher.Match(requested); confidence != language.No {
			tag = m.tags[index]
		}
	}

	return translator{
		tag:      tag,
		primary:  m.catalogs[tag],
		fallback: m.catalogs[m.tags[0]],
		printer:  message.NewPrinter(tag),
	}
}

// Languages returns the loaded language tags, default first.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	languages := make([]string, 0, len(m.tags))
	for _, tag := range m.tags {
		languages = append(languages, tag.String())
	}
	return languages
}

type translator struct {
	tag      language.Tag
	primary  map[string]string
	fallback map[string]string
	printer  *message.Printer
}

func (t translator) Lang() string {
	return t.tag.String()
}

// T returns the text for key, the default language's text when this catalog lacks it, or key itself.
func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	if value, ok := t.primary[key]; ok {
		return value
	}
	if value, ok := t.fallback[key]; ok {
		return value
	}

	return key
}

// Tf formats the text for key with the language's printer.
func (t translator) Tf(key string, args ...any) string {
	return t.printer.Sprintf(t.T(key), args...)
}

func readCatalogs(fsys fs.FS, dir string) (map[language.Tag]map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	catalogs := make(map[language.Tag]map[string]string)
	found := false

	for _, entry := range entries {
		ext := strings.ToLower(path.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		found = true

		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("i18n: read file %s: %w", name, err)
		}

		var doc map[string]map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("i18n: parse file %s: %w", name, err)
		}

		for rawTag, tree := range doc {
			tag, err := language.Parse(rawTag)
			if err != nil {
				return nil, fmt.Errorf("i18n: %s: language %q: %w", name, rawTag, err)
			}

			catalog := catalogs[tag]
			if catalog == nil {
				catalog = make(map[string]string)
				catalogs[tag] = catalog
			}
			flatten("", tree, catalog)
		}
	}

	if !found {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}

	return catalogs, nil
}

// flatten turns {select: {usage: "..."}} into {"select.usage": "..."}.
func flatten(prefix string, tree map[string]any, out map[string]string) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[key] = v
		case map[string]any:
			flatten(key, v, out)
		}
	}
}
