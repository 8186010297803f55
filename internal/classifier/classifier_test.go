package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cybersalt/cs-sponsored-articles/internal/classifier"
)

func TestCandidates(t *testing.T) {
	t.Parallel()

	auto := []string{
		"tck-article", "tck-blog-item", "blog-item", "uk-article", "astroid-article",
		"article-list-item", "item-page", "item", "article",
	}

	tests := []struct {
		name     string
		template string
		custom   string
		want     []string
	}{
		{"cassiopeia", "cassiopeia", "", []string{"blog-item"}},
		{"tck", "tck", "", []string{"tck-article", "tck-blog-item"}},
		{"helix", "helix_ultimate", "", []string{"article-list-item", "article"}},
		{"yootheme", "yootheme", "", []string{"uk-article"}},
		{"astroid", "astroid", "", []string{"astroid-article"}},
		{"protostar", "protostar", "", []string{"item"}},
		{"custom", "custom", "my-teaser", []string{"my-teaser"}},
		{"custom trims", "custom", "  my-teaser ", []string{"my-teaser"}},
		{"custom empty", "custom", "", auto},
		{"auto", "auto", "", auto},
		{"unknown", "gantry5", "", auto},
		{"empty", "", "", auto},
		{"case insensitive", "  TCK ", "", []string{"tck-article", "tck-blog-item"}},
		{"custom ignored elsewhere", "cassiopeia", "my-teaser", []string{"blog-item"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, classifier.Candidates(tt.template, tt.custom))
		})
	}
}

func TestCandidates_ReturnsCopy(t *testing.T) {
	t.Parallel()

	first := classifier.Candidates("tck", "")
	first[0] = "mutated"

	assert.Equal(t, "tck-article", classifier.Candidates("tck", "")[0])
	assert.Equal(t, "tck-article", classifier.AutoCandidates()[0])
}

func TestForClass(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"cassiopeia"}, classifier.ForClass("blog-item"))
	assert.Equal(t, []string{"helix_ultimate"}, classifier.ForClass("article"))
	assert.Empty(t, classifier.ForClass("item-page"))
}
