package sqlrepo

import (
	"database/sql"
	"time"

	"yatube/internal/model"
)

const postColumns = `
	p.id, p.text, p.pub_date, p.author_id, p.group_id, p.image,
	u.username AS author_username, u.first_name AS author_first_name, u.last_name AS author_last_name,
	g.title AS group_title, g.slug AS group_slug, g.description AS group_description`

const postFrom = `
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_groups g ON g.id = p.group_id`

const postOrder = ` ORDER BY p.pub_date DESC, p.id DESC`

type postRow struct {
	ID               int            `db:"id"`
	Text             string         `db:"text"`
	PubDate          time.Time      `db:"pub_date"`
	AuthorID         int            `db:"author_id"`
	GroupID          sql.NullInt64  `db:"group_id"`
	Image            sql.NullString `db:"image"`
	AuthorUsername   string         `db:"author_username"`
	AuthorFirstName  string         `db:"author_first_name"`
	AuthorLastName   string         `db:"author_last_name"`
	GroupTitle       sql.NullString `db:"group_title"`
	GroupSlug        sql.NullString `db:"group_slug"`
	GroupDescription sql.NullString `db:"group_description"`
}

func (r postRow) toModel() *model.Post {
	post := &model.Post{
		ID:       r.ID,
		Text:     r.Text,
		PubDate:  r.PubDate,
		AuthorID: r.AuthorID,
		Image:    r.Image.String,
		Author: &model.User{
			ID:        r.AuthorID,
			Username:  r.AuthorUsername,
			FirstName: r.AuthorFirstName,
			LastName:  r.AuthorLastName,
		},
	}
	if r.GroupID.Valid {
		groupID := int(r.GroupID.Int64)
		post.GroupID = &groupID
		post.Group = &model.Group{
			ID:          groupID,
			Title:       r.GroupTitle.String,
			Slug:        r.GroupSlug.String,
			Description: r.GroupDescription.String,
		}
	}
	return post
}

func postsFromRows(rows []postRow) []*model.Post {
	posts := make([]*model.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toModel())
	}
	return posts
}

type groupRow struct {
	ID          int    `db:"id"`
	Title       string `db:"title"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
}

func (r groupRow) toModel() *model.Group {
	return &model.Group{ID: r.ID, Title: r.Title, Slug: r.Slug, Description: r.Description}
}

type commentRow struct {
	ID              int       `db:"id"`
	PostID          int       `db:"post_id"`
	AuthorID        int       `db:"author_id"`
	Text            string    `db:"text"`
	Created         time.Time `db:"created"`
	AuthorUsername  string    `db:"author_username"`
	AuthorFirstName string    `db:"author_first_name"`
	AuthorLastName  string    `db:"author_last_name"`
}

func (r commentRow) toModel() *model.Comment {
	return &model.Comment{
		ID:       r.ID,
		PostID:   r.PostID,
		AuthorID: r.AuthorID,
		Text:     r.Text,
		Created:  r.Created,
		Author: &model.User{
			ID:        r.AuthorID,
			Username:  r.AuthorUsername,
			FirstName: r.AuthorFirstName,
			LastName:  r.AuthorLastName,
		},
	}
}

type userRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
