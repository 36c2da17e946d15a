package enums

import "fmt"

// ArticleStatus is the editorial lifecycle of an article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

var validArticleStatuses = []ArticleStatus{
	ArticleStatusDraft,
	ArticleStatusPublished,
	ArticleStatusArchived,
}

// String implements fmt.Stringer.
func (a ArticleStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ArticleStatus.
func (a ArticleStatus) IsValid() bool {
	for _, candidate := range validArticleStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseArticleStatus converts raw input into an ArticleStatus.
func ParseArticleStatus(value string) (ArticleStatus, error) {
	for _, candidate := range validArticleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid article status %q", value)
}
