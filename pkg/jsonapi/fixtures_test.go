package jsonapi

import "fmt"

type author struct {
	id    int
	name  string
	posts []*post
	bio   *bio
}

type bio struct {
	id      int
	content string
	author  *author
}

type post struct {
	id       int
	title    string
	body     string
	comments []*comment
	author   *author
	blog     *blog
}

type comment struct {
	id     int
	body   string
	post   *post
	author *author
}

type blog struct {
	id       int
	name     string
	writer   *author
	articles []*post
}

func (a *author) Identifier() any { return a.id }
func (a *author) TypeName() string { return "authors" }
func (a *author) Attributes(AttributeOptions) map[string]any {
	return map[string]any{"id": a.id, "name": a.name}
}
func (a *author) EachAssociation(yield func(Association)) {
	posts := make([]Entity, 0, len(a.posts))
	for _, p := range a.posts {
		posts = append(posts, p)
	}
	yield(HasMany("posts", posts...))
	yield(HasOne("bio", a.bio))
}

func (b *bio) Identifier() any { return b.id }
func (b *bio) TypeName() string { return "bios" }
func (b *bio) Attributes(AttributeOptions) map[string]any {
	return map[string]any{"content": b.content}
}
func (b *bio) EachAssociation(yield func(Association)) {
	yield(HasOne("author", b.author))
}

func (p *post) Identifier() any { return p.id }
func (p *post) TypeName() string { return "posts" }
func (p *post) Attributes(AttributeOptions) map[string]any {
	return map[string]any{"id": p.id, "title": p.title, "body": p.body}
}
func (p *post) EachAssociation(yield func(Association)) {
	comments := make([]Entity, 0, len(p.comments))
	for _, c := range p.comments {
		comments = append(comments, c)
	}
	yield(HasMany("comments", comments...))
	yield(HasOne("blog", p.blog))
	yield(HasOne("author", p.author))
}

func (c *comment) Identifier() any { return c.id }
func (c *comment) TypeName() string { return "comments" }
func (c *comment) Attributes(AttributeOptions) map[string]any {
	return map[string]any{"id": c.id, "body": c.body}
}
func (c *comment) EachAssociation(yield func(Association)) {
	yield(HasOne("post", c.post))
	yield(HasOne("author", c.author))
}

func (b *blog) Identifier() any { return b.id }
func (b *blog) TypeName() string { return "blogs" }
func (b *blog) Attributes(AttributeOptions) map[string]any {
	return map[string]any{"name": b.name}
}
func (b *blog) EachAssociation(yield func(Association)) {
	articles := make([]Entity, 0, len(b.articles))
	for _, p := range b.articles {
		articles = append(articles, p)
	}
	yield(HasOne("writer", b.writer))
	yield(HasMany("articles", articles...))
}

// postWithLinks only exposes comments and author, like a trimmed serializer.
type postWithLinks struct{ *post }

func (p postWithLinks) EachAssociation(yield func(Association)) {
	comments := make([]Entity, 0, len(p.comments))
	for _, c := range p.comments {
		comments = append(comments, c)
	}
	yield(HasMany("comments", comments...))
	yield(HasOne("author", p.author))
}

type uuidLike struct{ v string }

func (u uuidLike) String() string { return u.v }

type opaque struct{ id any }

func (o opaque) Identifier() any                            { return o.id }
func (o opaque) TypeName() string                           { return "opaques" }
func (o opaque) Attributes(AttributeOptions) map[string]any { return nil }
func (o opaque) EachAssociation(func(Association))          {}

type fixture struct {
	author              *author
	post                *post
	postWithoutComments *post
	firstComment        *comment
	secondComment       *comment
	blog                *blog
}

func newFixture() *fixture {
	f := &fixture{}
	f.author = &author{id: 1, name: "Steve K."}
	f.post = &post{id: 1, title: "New Post", body: "Body"}
	f.postWithoutComments = &post{id: 2, title: "Second Post", body: "Second"}
	f.firstComment = &comment{id: 1, body: "ZOMG A COMMENT"}
	f.secondComment = &comment{id: 2, body: "ZOMG ANOTHER COMMENT"}
	f.post.comments = []*comment{f.firstComment, f.secondComment}
	f.firstComment.post = f.post
	f.secondComment.post = f.post
	f.post.author = f.author
	f.blog = &blog{id: 1, name: "My Blog!!", writer: f.author, articles: []*post{f.post}}
	f.post.blog = f.blog
	return f
}

func ident(typ string, id int) ResourceIdentifier {
	return ResourceIdentifier{Type: typ, ID: fmt.Sprint(id)}
}
