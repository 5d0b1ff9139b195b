package server

import (
	"log/slog"
	"net/http"

	"pairchat/auth"
	"pairchat/domain/chat"
	"pairchat/errors"
	"pairchat/services"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type Handler struct {
	log         *slog.Logger
	authService services.IAuthService
	userService services.IUserService
	chatService services.IChatService
}

func NewHandler(log *slog.Logger, authService services.IAuthService,
	userService services.IUserService, chatService services.IChatService) *Handler {
	return &Handler{log: log, authService: authService, userService: userService, chatService: chatService}
}

// Register creates a user. The password never appears in the response.
func (h *Handler) Register(c *gin.Context) {
	var in credentialsRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, errors.ErrInvalidInput)
		return
	}
	user, err := h.authService.Register(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *Handler) ObtainToken(c *gin.Context) {
	var in tokenRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, errors.ErrInvalidInput)
		return
	}
	pair, err := h.authService.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var in refreshRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, errors.ErrInvalidInput)
		return
	}
	access, err := h.authService.Refresh(c.Request.Context(), in.Refresh)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, accessResponse{Access: string(access)})
}

func (h *Handler) ListUsers(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}
	users, err := h.userService.ListUsers(c.Request.Context(), requester)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponses(users))
}

func (h *Handler) ListConversations(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}
	views, err := h.chatService.ListConversations(c.Request.Context(), requester)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(views, func(v chat.ConversationView, _ int) conversationResponse {
		return toConversationResponse(v)
	}))
}

func (h *Handler) CreateConversation(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}
	var in createConversationRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, errors.ErrInvalidInput)
		return
	}
	view, err := h.chatService.CreateConversation(c.Request.Context(), chat.CreateConversationCommand{
		RequesterID:  requester,
		Participants: rawIdentifiers(in.Participants),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConversationResponse(view))
}

func (h *Handler) ListMessages(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}
	conversationID, ok := h.conversationID(c)
	if !ok {
		return
	}
	views, err := h.chatService.ListMessages(c.Request.Context(), requester, conversationID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(views, func(v chat.MessageView, _ int) messageResponse {
		return toMessageResponse(v)
	}))
}

func (h *Handler) CreateMessage(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}
	conversationID, ok := h.conversationID(c)
	if !ok {
		return
	}
	var in createMessageRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, errors.ErrInvalidInput)
		return
	}
	view, err := h.chatService.PostMessage(c.Request.Context(), chat.PostMessageCommand{
		RequesterID:    requester,
		ConversationID: conversationID,
		Content:        in.Content,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(view))
}

func (h *Handler) GetMessage(c *gin.Context) {
	cmd, ok := h.messageCommand(c)
	if !ok {
		return
	}
	view, err := h.chatService.GetMessage(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(view))
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	cmd, ok := h.messageCommand(c)
	if !ok {
		return
	}
	if err := h.chatService.DeleteMessage(c.Request.Context(), cmd); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) requester(c *gin.Context) (chat.UserID, bool) {
	userID, ok := auth.UserIDFrom(c)
	if !ok {
		h.fail(c, errors.ErrUnauthenticated)
	}
	return userID, ok
}

// Path ids that are not positive integers do not match any resource.
func (h *Handler) conversationID(c *gin.Context) (chat.ConversationID, bool) {
	id, err := chat.ParseConversationID(c.Param("conversation_id"))
	if err != nil {
		h.fail(c, errors.ErrConversationNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) messageCommand(c *gin.Context) (chat.MessageCommand, bool) {
	requester, ok := h.requester(c)
	if !ok {
		return chat.MessageCommand{}, false
	}
	conversationID, ok := h.conversationID(c)
	if !ok {
		return chat.MessageCommand{}, false
	}
	messageID, err := chat.ParseMessageID(c.Param("message_id"))
	if err != nil {
		h.fail(c, errors.ErrMessageNotFound)
		return chat.MessageCommand{}, false
	}
	return chat.MessageCommand{RequesterID: requester, ConversationID: conversationID, MessageID: messageID}, true
}

// fail writes the error body. Internal errors are logged and hidden from the caller.
func (h *Handler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if errors.IsInternal(err) {
		h.log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(status, errorResponse{Error: http.StatusText(status)})
		return
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}
