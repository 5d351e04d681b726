package posts

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/api/forms"
	"yatube/internal/errors"
	"yatube/internal/metrics"
	"yatube/internal/middleware"
	"yatube/internal/model"
	"yatube/internal/paginator"
	"yatube/internal/service"
	"yatube/internal/urls"
	"yatube/internal/util"
)

// PostForm 创建和编辑帖子的表单，Group 为空表示不选择分组
type PostForm struct {
	Text  string `form:"text" binding:"required"`
	Group string `form:"group"`
}

type CommentForm struct {
	Text string `form:"text" binding:"required"`
}

// PostHandler 处理帖子、分组、评论和关注相关的页面
type PostHandler struct {
	posts   service.PostServiceInterface
	follows service.FollowServiceInterface
	metrics *metrics.Registry
}

func NewPostHandler(posts service.PostServiceInterface, follows service.FollowServiceInterface, m *metrics.Registry) *PostHandler {
	return &PostHandler{
		posts:   posts,
		follows: follows,
		metrics: m,
	}
}

func (h *PostHandler) render(c *gin.Context, name string, data gin.H) {
	data["current_user"] = middleware.UserFrom(c)
	c.HTML(http.StatusOK, name, data)
}

func fail(c *gin.Context, msg string, err error) {
	if errors.StatusOf(err) >= http.StatusInternalServerError {
		util.Logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	} else {
		util.Logger.Info(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	errors.HandleError(c, err)
}

// postID 非数字的ID与不存在的帖子一样返回 404
func postID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("post_id"))
	if err != nil || id < 1 {
		errors.HandleError(c, errors.New(errors.ErrPostNotFound, "帖子不存在"))
		return 0, false
	}
	return id, true
}

// Index 首页，所有帖子按发布时间倒序分页
func (h *PostHandler) Index(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		fail(c, "获取帖子列表失败", err)
		return
	}

	h.render(c, "posts/index.html", gin.H{
		"page_obj":  paginator.Paginate(posts, c.Query("page")),
		"post_list": posts,
	})
}

func (h *PostHandler) GroupList(c *gin.Context) {
	group, posts, err := h.posts.GroupPosts(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, "获取分组帖子失败", err)
		return
	}

	h.render(c, "posts/group_list.html", gin.H{
		"group":    group,
		"posts":    posts,
		"page_obj": paginator.Paginate(posts, c.Query("page")),
	})
}

// Profile 作者主页，匿名访问时 following 为 false
func (h *PostHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	author, posts, err := h.posts.ProfilePosts(ctx, c.Param("username"))
	if err != nil {
		fail(c, "获取用户帖子失败", err)
		return
	}

	user := middleware.UserFrom(c)
	following, err := h.follows.IsFollowing(ctx, user, author)
	if err != nil {
		fail(c, "查询关注关系失败", err)
		return
	}
	followers, err := h.follows.FollowerCount(ctx, author.ID)
	if err != nil {
		util.Logger.Warn("统计粉丝失败", zap.Int("author_id", author.ID), zap.Error(err))
	}

	h.render(c, "posts/profile.html", gin.H{
		"author":    author,
		"post_list": posts,
		"page_obj":  paginator.Paginate(posts, c.Query("page")),
		"following": following,
		"followers": followers,
		"is_self":   user != nil && user.ID == author.ID,
	})
}

func (h *PostHandler) PostDetail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		fail(c, "获取帖子失败", err)
		return
	}
	comments, err := h.posts.Comments(ctx, post.ID)
	if err != nil {
		fail(c, "获取评论失败", err)
		return
	}

	h.render(c, "posts/post_detail.html", gin.H{
		"one_post": post,
		"post":     post,
		"author":   post.Author,
		"form":     forms.New(&CommentForm{}),
		"comments": comments,
		"can_edit": service.AuthorizeEdit(post, middleware.UserFrom(c)) == service.EditAuthorized,
	})
}

func (h *PostHandler) renderPostForm(c *gin.Context, form *forms.Form, post *model.Post) {
	groups, err := h.posts.ListGroups(c.Request.Context())
	if err != nil {
		fail(c, "获取分组列表失败", err)
		return
	}
	h.render(c, "posts/create_post.html", gin.H{
		"form":    form,
		"groups":  groups,
		"is_edit": post != nil,
		"post":    post,
	})
}

// postInput 把表单转换为服务层输入，分组ID格式错误时记录到表单
func postInput(c *gin.Context, form *forms.Form) service.PostInput {
	values := form.Values.(*PostForm)
	input := service.PostInput{Text: values.Text}

	if values.Group != "" {
		id, err := strconv.Atoi(values.Group)
		if err != nil {
			form.AddError("group", "请选择有效的分组")
		} else {
			input.GroupID = &id
		}
	}
	if file, err := c.FormFile("image"); err == nil {
		input.Image = file
	}
	return input
}

// formField 返回服务层校验错误对应的表单字段
func formField(err error) (string, bool) {
	switch errors.CodeOf(err) {
	case errors.ErrValidation:
		return "text", true
	case errors.ErrGroupNotFound:
		return "group", true
	case errors.ErrInvalidImage:
		return "image", true
	}
	return "", false
}

func addServiceError(form *forms.Form, err error) bool {
	field, ok := formField(err)
	if !ok {
		return false
	}
	appErr, _ := errors.As(err)
	form.AddError(field, appErr.Message)
	return true
}

// PostCreate GET 显示空表单，POST 校验后以当前用户为作者创建帖子
func (h *PostHandler) PostCreate(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.renderPostForm(c, forms.New(&PostForm{}), nil)
		return
	}

	user := middleware.UserFrom(c)
	form := forms.Bind(c, &PostForm{})
	input := postInput(c, form)
	if !form.Valid() {
		h.renderPostForm(c, form, nil)
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), user, input)
	if err != nil {
		if addServiceError(form, err) {
			h.renderPostForm(c, form, nil)
			return
		}
		fail(c, "创建帖子失败", err)
		return
	}

	if h.metrics != nil {
		h.metrics.PostsCreated.Inc()
	}
	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID), zap.Int("user_id", user.ID))
	c.Redirect(http.StatusFound, urls.MustReverse("posts:profile", user.Username))
}

func groupValue(groupID *int) string {
	if groupID == nil {
		return ""
	}
	return strconv.Itoa(*groupID)
}

// PostEdit 只有作者可以编辑，其他用户静默重定向到帖子详情
func (h *PostHandler) PostEdit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		fail(c, "获取帖子失败", err)
		return
	}

	detail := urls.MustReverse("posts:post_detail", post.ID)
	user := middleware.UserFrom(c)
	if service.AuthorizeEdit(post, user) != service.EditAuthorized {
		c.Redirect(http.StatusFound, detail)
		return
	}

	if c.Request.Method != http.MethodPost {
		form := forms.New(&PostForm{Text: post.Text, Group: groupValue(post.GroupID)})
		h.renderPostForm(c, form, post)
		return
	}

	form := forms.Bind(c, &PostForm{})
	input := postInput(c, form)
	if !form.Valid() {
		h.renderPostForm(c, form, post)
		return
	}

	if err := h.posts.UpdatePost(ctx, post, user, input); err != nil {
		if errors.IsCode(err, errors.ErrForbidden) {
			c.Redirect(http.StatusFound, detail)
			return
		}
		if addServiceError(form, err) {
			h.renderPostForm(c, form, post)
			return
		}
		fail(c, "更新帖子失败", err)
		return
	}

	c.Redirect(http.StatusFound, detail)
}

// AddComment 无论评论是否有效都重定向回帖子详情
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		fail(c, "获取帖子失败", err)
		return
	}
	detail := urls.MustReverse("posts:post_detail", post.ID)

	if c.Request.Method == http.MethodPost {
		form := forms.Bind(c, &CommentForm{})
		if form.Valid() {
			values := form.Values.(*CommentForm)
			_, err := h.posts.AddComment(ctx, post.ID, middleware.UserFrom(c), values.Text)
			switch {
			case err == nil:
				if h.metrics != nil {
					h.metrics.CommentsCreated.Inc()
				}
			case errors.IsCode(err, errors.ErrValidation):
			default:
				fail(c, "添加评论失败", err)
				return
			}
		}
	}

	c.Redirect(http.StatusFound, detail)
}

// FollowIndex 当前用户关注的作者的帖子
func (h *PostHandler) FollowIndex(c *gin.Context) {
	user := middleware.UserFrom(c)
	posts, err := h.posts.FeedPosts(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, "获取关注动态失败", err)
		return
	}

	h.render(c, "posts/follow.html", gin.H{
		"page_obj":  paginator.Paginate(posts, c.Query("page")),
		"post_list": posts,
	})
}

func (h *PostHandler) ProfileFollow(c *gin.Context) {
	if _, err := h.follows.Follow(c.Request.Context(), middleware.UserFrom(c), c.Param("username")); err != nil {
		fail(c, "关注失败", err)
		return
	}
	c.Redirect(http.StatusFound, urls.MustReverse("posts:follow_index"))
}

func (h *PostHandler) ProfileUnfollow(c *gin.Context) {
	if _, err := h.follows.Unfollow(c.Request.Context(), middleware.UserFrom(c), c.Param("username")); err != nil {
		fail(c, "取消关注失败", err)
		return
	}
	c.Redirect(http.StatusFound, urls.MustReverse("posts:follow_index"))
}

func getPost(r gin.IRoutes, path string, handler gin.HandlerFunc) {
	r.GET(path, handler)
	r.POST(path, handler)
}

// RegisterRoutes 注册帖子相关路由，index 额外挂载页面缓存中间件
func (h *PostHandler) RegisterRoutes(r gin.IRouter, indexCache gin.HandlerFunc) {
	if indexCache != nil {
		r.GET(urls.Path("posts:index"), indexCache, h.Index)
	} else {
		r.GET(urls.Path("posts:index"), h.Index)
	}
	r.GET(urls.Path("posts:group_list"), h.GroupList)
	r.GET(urls.Path("posts:profile"), h.Profile)
	r.GET(urls.Path("posts:post_detail"), h.PostDetail)

	auth := r.Group("", middleware.LoginRequired())
	auth.GET(urls.Path("posts:follow_index"), h.FollowIndex)
	getPost(auth, urls.Path("posts:post_create"), h.PostCreate)
	getPost(auth, urls.Path("posts:post_edit"), h.PostEdit)
	getPost(auth, urls.Path("posts:add_comment"), h.AddComment)
	getPost(auth, urls.Path("posts:profile_follow"), h.ProfileFollow)
	getPost(auth, urls.Path("posts:profile_unfollow"), h.ProfileUnfollow)
}
