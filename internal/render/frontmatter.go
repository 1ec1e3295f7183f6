package render

import (
	"strings"

	"github.com/adrg/frontmatter"
)

// Frontmatter is the metadata block accepted at the top of imported page
// files.
type Frontmatter struct {
	Title  string   `yaml:"title"`
	Slug   string   `yaml:"slug"`
	Format string   `yaml:"format"`
	Tags   []string `yaml:"tags"`
}

// ParseFrontmatter splits an optional YAML frontmatter block off a page
// body. Bodies without a block come back unchanged with empty metadata.
func ParseFrontmatter(body string) (Frontmatter, string, error) {
	var meta Frontmatter
	rest, err := frontmatter.Parse(strings.NewReader(body), &meta)
	if err != nil {
		return Frontmatter{}, "", err
	}
	return meta, string(rest), nil
}
