package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalogs(t *testing.T) {
	m, err := Load("en")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "ru"}, m.Languages())

	en := m.Translator("en-US")
	assert.Equal(t, "en", en.Lang())
	assert.Equal(t, "Display: INSERT COIN", en.Tf("display", "INSERT COIN"))

	ru := m.Translator("ru-RU")
	assert.Equal(t, "ru", ru.Lang())
	assert.Equal(t, "Дисплей: SOLD OUT", ru.Tf("display", "SOLD OUT"))
	// status is only in the English catalog.
	assert.Equal(t, en.T("status"), ru.T("status"))
}

func TestTranslator_Fallbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"catalogs/base.yaml":  {Data: []byte("en:\n  greeting: hello\n  nested:\n    key: value\n")},
		"catalogs/extra.yml":  {Data: []byte("de:\n  greeting: hallo\n")},
		"catalogs/notes.txt":  {Data: []byte("ignored")},
		"catalogs/empty.yaml": {Data: []byte("  ")},
	}

	m, err := LoadFS(fsys, "catalogs", "")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		lang     string
		key      string
		expected string
	}{
		{name: "own language", lang: "de", key: "greeting", expected: "hallo"},
		{name: "nested key", lang: "en", key: "nested.key", expected: "value"},
		{name: "falls back to default language", lang: "de", key: "nested.key", expected: "value"},
		{name: "unknown language", lang: "fr", key: "greeting", expected: "hello"},
		{name: "regional variant", lang: "de-AT", key: "greeting", expected: "hallo"},
		{name: "malformed code", lang: "??", key: "greeting", expected: "hello"},
		{name: "missing key", lang: "en", key: "missing", expected: "missing"},
		{name: "blank key", lang: "en", key: " ", expected: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, m.Translator(tc.lang).T(tc.key))
		})
	}
}

func TestLoadFS_Errors(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{}, "catalogs", "en")
	assert.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"catalogs/a.txt": {Data: []byte("x")}}, "catalogs", "en")
	assert.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"catalogs/a.yaml": {Data: []byte("de:\n  a: b\n")}}, "catalogs", "en")
	assert.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"catalogs/a.yaml": {Data: []byte("en: [")}}, "catalogs", "en")
	assert.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"catalogs/a.yaml": {Data: []byte("not a tag!:\n  a: b\n")}}, "catalogs", "en")
	assert.Error(t, err)
}

func TestTf_UsesLanguagePrinter(t *testing.T) {
	fsys := fstest.MapFS{
		"catalogs/a.yaml": {Data: []byte("en:\n  sold: \"%d sold\"\nde:\n  sold: \"%d verkauft\"\n")},
	}

	m, err := LoadFS(fsys, "catalogs", "en")
	require.NoError(t, err)

	assert.Equal(t, "1,500 sold", m.Translator("en").Tf("sold", 1500))
	assert.Equal(t, "1.500 verkauft", m.Translator("de").Tf("sold", 1500))
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.Equal(t, "key", m.Translator("en").T("key"))
	assert.Nil(t, m.Languages())
}
