package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Akaza561/med-bridge/internal/domain"
	"github.com/Akaza561/med-bridge/internal/repository"
	"github.com/Akaza561/med-bridge/internal/service"
	"github.com/Akaza561/med-bridge/internal/session"
)

type Server struct {
	engine   *gin.Engine
	auth     *service.AuthService
	catalog  *service.CatalogService
	scan     *service.ScanService
	orders   *service.OrderService
	sessions *session.Manager
}

func NewServer(auth *service.AuthService, catalog *service.CatalogService, scan *service.ScanService, orders *service.OrderService, sessions *session.Manager) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{engine: r, auth: auth, catalog: catalog, scan: scan, orders: orders, sessions: sessions}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	v1 := s.engine.Group("/api/v1")
	v1.POST("/login", s.login)

	authed := v1.Group("")
	authed.Use(s.authRequired())
	{
		authed.POST("/logout", s.logout)
		authed.GET("/session", s.sessionState)
		authed.POST("/session/dialogs", s.dialog)

		authed.GET("/stock", s.listStock)
		authed.DELETE("/stock/:id", s.deleteStock)

		authed.POST("/scan/images", s.attachImage)
		authed.DELETE("/scan/images/:id", s.detachImage)
		authed.POST("/scan", s.runScan)
		authed.POST("/scan/save", s.saveDraft)
		authed.POST("/scan/reset", s.resetDraft)

		authed.POST("/checkout/:id", s.openCheckout)
		authed.GET("/orders", s.listOrders)
		authed.POST("/orders", s.confirmOrder)

		authed.GET("/wishlist", s.listWishlist)
		authed.POST("/wishlist/:id/toggle", s.toggleWishlist)
	}
}

const profileKey = "profile"

// authRequired проверяет токен сессии и кладёт профиль в контекст.
// Токен без живой сессии (после logout) тоже отклоняется.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		tok := strings.TrimPrefix(h, "Bearer ")
		profile, err := s.auth.Parse(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if _, err := s.sessions.Get(profile.Username); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.Set(profileKey, profile)
		c.Next()
	}
}

func currentProfile(c *gin.Context) domain.UserProfile {
	p, _ := c.Get(profileKey)
	profile, _ := p.(domain.UserProfile)
	return profile
}

type loginReq struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type loginResp struct {
	Token string        `json:"token"`
	State session.State `json:"state"`
}

// @Summary Login
// @Tags session
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} loginResp
// @Failure 400 {object} map[string]string
// @Router /login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	tok, state, err := s.auth.Login(c, req.Username, req.Password, req.Role)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loginResp{Token: tok, State: state})
}

// @Summary Logout
// @Tags session
// @Success 204
// @Router /logout [post]
func (s *Server) logout(c *gin.Context) {
	s.auth.Logout(currentProfile(c).Username)
	c.Status(http.StatusNoContent)
}

// @Summary Current session state
// @Tags session
// @Produce json
// @Success 200 {object} session.State
// @Router /session [get]
func (s *Server) sessionState(c *gin.Context) {
	state, err := s.sessions.Get(currentProfile(c).Username)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

type dialogReq struct {
	Slot session.Slot `json:"slot"`
	Open bool         `json:"open"`
}

// @Summary Open or close a dialog slot
// @Tags session
// @Accept json
// @Produce json
// @Param input body dialogReq true "Slot"
// @Success 200 {object} session.State
// @Failure 400 {object} map[string]string
// @Router /session/dialogs [post]
func (s *Server) dialog(c *gin.Context) {
	var req dialogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	profile := currentProfile(c)

	var ev session.Event
	switch req.Slot {
	case session.SlotStock, session.SlotOrders, session.SlotWishlist, session.SlotSummary:
		if req.Open {
			ev = session.OpenDialog{Slot: req.Slot}
		} else {
			ev = session.CloseDialog{Slot: req.Slot}
		}
	case session.SlotCheckout, session.SlotDetail:
		if req.Open {
			// stock-backed slots go through their own open endpoints;
			// the generic event only closes them
			c.JSON(http.StatusBadRequest, gin.H{"error": "slot requires an item endpoint"})
			return
		}
		ev = session.CloseDialog{Slot: req.Slot}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown slot"})
		return
	}

	state, err := s.sessions.Dispatch(profile.Username, ev)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary List stock
// @Tags stock
// @Produce json
// @Param q query string false "Name contains"
// @Success 200 {array} domain.MedicineRecord
// @Router /stock [get]
func (s *Server) listStock(c *gin.Context) {
	recs, err := s.catalog.Browse(c, currentProfile(c).Username, c.Query("q"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// @Summary Remove an item from the registry
// @Tags stock
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {array} domain.MedicineRecord
// @Failure 403 {object} map[string]string
// @Router /stock/{id} [delete]
func (s *Server) deleteStock(c *gin.Context) {
	recs, err := s.catalog.Delete(c, currentProfile(c), c.Param("id"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}

type attachReq struct {
	Data string `json:"data"`
}

// @Summary Attach a packaging photo to the draft
// @Tags scan
// @Accept json
// @Produce json
// @Param input body attachReq true "Base64 image"
// @Success 200 {object} session.State
// @Failure 400 {object} map[string]string
// @Router /scan/images [post]
func (s *Server) attachImage(c *gin.Context) {
	var req attachReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	state, err := s.scan.Attach(currentProfile(c), req.Data)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary Remove an attached photo
// @Tags scan
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 200 {object} session.State
// @Router /scan/images/{id} [delete]
func (s *Server) detachImage(c *gin.Context) {
	state, err := s.scan.Detach(currentProfile(c), c.Param("id"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary Run image analysis on the attached photos
// @Tags scan
// @Produce json
// @Success 200 {object} session.State
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /scan [post]
func (s *Server) runScan(c *gin.Context) {
	state, err := s.scan.Scan(c, currentProfile(c))
	if err != nil {
		status := mapErrorToStatus(err)
		if status == http.StatusInternalServerError {
			// gateway failures surface to the user as a retryable message
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error(), "state": state})
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary Publish the draft to the registry
// @Tags scan
// @Produce json
// @Success 201 {object} session.State
// @Failure 409 {object} map[string]string
// @Router /scan/save [post]
func (s *Server) saveDraft(c *gin.Context) {
	state, err := s.scan.Save(c, currentProfile(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, state)
}

// @Summary Clear the draft for the next scan
// @Tags scan
// @Produce json
// @Success 200 {object} session.State
// @Router /scan/reset [post]
func (s *Server) resetDraft(c *gin.Context) {
	state, err := s.scan.Reset(currentProfile(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary Open checkout for an item
// @Tags orders
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} session.State
// @Failure 404 {object} map[string]string
// @Router /checkout/{id} [post]
func (s *Server) openCheckout(c *gin.Context) {
	state, err := s.orders.OpenCheckout(c, currentProfile(c), c.Param("id"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

type checkoutReq struct {
	ReceiverName  string `json:"receiverName"`
	Address       string `json:"address"`
	PaymentMethod string `json:"paymentMethod"`
}

// @Summary Confirm checkout
// @Tags orders
// @Accept json
// @Produce json
// @Param input body checkoutReq true "Delivery details"
// @Success 201 {object} session.State
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders [post]
func (s *Server) confirmOrder(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	state, err := s.orders.Confirm(c, currentProfile(c), service.CheckoutDetails{
		ReceiverName:  req.ReceiverName,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, state)
}

// @Summary List orders, newest first
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.orders.List(c, currentProfile(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// @Summary Wishlist resolved against current stock
// @Tags wishlist
// @Produce json
// @Success 200 {array} domain.MedicineRecord
// @Router /wishlist [get]
func (s *Server) listWishlist(c *gin.Context) {
	items, err := s.catalog.Wishlist(c, currentProfile(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Toggle wishlist membership
// @Tags wishlist
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {array} string
// @Failure 403 {object} map[string]string
// @Router /wishlist/{id}/toggle [post]
func (s *Server) toggleWishlist(c *gin.Context) {
	ids, err := s.catalog.Toggle(c, currentProfile(c), c.Param("id"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ids)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, session.ErrNoImages),
		errors.Is(err, session.ErrNoDraft):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrBadToken), errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, session.ErrScanBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
