package model

import "time"

// PostStringLength 帖子的字符串表示取正文前15个字符
const PostStringLength = 15

type Group struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (g *Group) String() string {
	return g.Title
}

type Post struct {
	ID       int       `json:"id"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pub_date"`
	AuthorID int       `json:"author_id"`
	Author   *User     `json:"author,omitempty"`
	GroupID  *int      `json:"group_id,omitempty"`
	Group    *Group    `json:"group,omitempty"`
	// Image 是存储后端中的相对路径，例如 posts/small.gif
	Image string `json:"image,omitempty"`
}

func (p *Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > PostStringLength {
		runes = runes[:PostStringLength]
	}
	return string(runes)
}

// IsAuthoredBy 判断 user 是否是帖子的作者
func (p *Post) IsAuthoredBy(user *User) bool {
	return user != nil && user.ID == p.AuthorID
}

type Comment struct {
	ID       int       `json:"id"`
	PostID   int       `json:"post_id"`
	AuthorID int       `json:"author_id"`
	Author   *User     `json:"author,omitempty"`
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`
}

// Follow 表示 UserID 关注了 AuthorID，同一对用户最多一条
type Follow struct {
	ID       int `json:"id"`
	UserID   int `json:"user_id"`
	AuthorID int `json:"author_id"`
}
