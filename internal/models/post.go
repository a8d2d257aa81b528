package models

import "fmt"

// Post is one generated LinkedIn post
type Post struct {
	Index int    `json:"index" yaml:"index"` // 1-based position in the collection
	Text  string `json:"text" yaml:"text"`
}

// Filename returns the download name for the post
func (p Post) Filename() string {
	return fmt.Sprintf("linkedin_post_%d.txt", p.Index)
}

// PostCollection is the ordered output of one run
type PostCollection struct {
	Posts     []Post `json:"posts" yaml:"posts"`
	Requested int    `json:"requested" yaml:"requested"`
}

// NewPostCollection numbers the fragments in textual order
func NewPostCollection(fragments []string, requested int) PostCollection {
	posts := make([]Post, len(fragments))
	for i, text := range fragments {
		posts[i] = Post{Index: i + 1, Text: text}
	}
	return PostCollection{Posts: posts, Requested: requested}
}

// Count returns the number of posts actually produced
func (c PostCollection) Count() int {
	return len(c.Posts)
}

// Mismatch reports whether the model produced a different number of posts than asked for
func (c PostCollection) Mismatch() bool {
	return c.Count() != c.Requested
}

// Texts returns the post bodies in order
func (c PostCollection) Texts() []string {
	texts := make([]string, len(c.Posts))
	for i, p := range c.Posts {
		texts[i] = p.Text
	}
	return texts
}

// Get returns the post with the given 1-based index
func (c PostCollection) Get(index int) (Post, bool) {
	if index < 1 || index > len(c.Posts) {
		return Post{}, false
	}
	return c.Posts[index-1], true
}
