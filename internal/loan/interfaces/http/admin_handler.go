package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/creditline/internal/loan/application"
	"github.com/wyfcoding/creditline/internal/loan/domain"
)

// AdminHandler 后台接口，操作员由网关写入 X-Operator
type AdminHandler struct {
	apps   *application.ApplicationService
	ledger *application.LedgerService
}

// NewAdminHandler 创建后台处理器
func NewAdminHandler(apps *application.ApplicationService, ledger *application.LedgerService) *AdminHandler {
	return &AdminHandler{apps: apps, ledger: ledger}
}

// RegisterRoutes 注册路由
func (h *AdminHandler) RegisterRoutes(router gin.IRouter) {
	admin := router.Group("/api/v1/admin/loan", requireHeader(HeaderOperator))
	{
		admin.GET("/applications", h.ListApplications)
		admin.GET("/applications/:id", h.GetApplication)
		admin.GET("/transactions", h.ListTransactions)
		admin.GET("/transactions/:txn_no", h.GetTransaction)
		admin.POST("/transactions", h.PostManual)
		admin.POST("/transactions/:txn_no/reverse", h.Reverse)
		admin.PATCH("/transactions/:txn_no/note", h.UpdateNote)
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return page, size
}

// ListApplications 申请分页
func (h *AdminHandler) ListApplications(c *gin.Context) {
	page, size := pageParams(c)
	filter := domain.ApplicationFilter{
		CustomerID:    c.Query("customer_id"),
		Status:        domain.ApplicationStatus(c.Query("status")),
		ApplicationNo: c.Query("application_no"),
	}
	res, err := h.apps.ListApplications(c.Request.Context(), filter, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// GetApplication 申请详情
func (h *AdminHandler) GetApplication(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	res, err := h.apps.GetApplication(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// ListTransactions 流水分页
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	page, size := pageParams(c)
	filter := domain.TransactionFilter{
		CustomerID: c.Query("customer_id"),
		ContractNo: c.Query("contract_no"),
		Type:       domain.TransactionType(c.Query("type")),
		Status:     domain.TransactionStatus(c.Query("status")),
	}
	res, err := h.ledger.ListTransactions(c.Request.Context(), filter, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// GetTransaction 流水详情
func (h *AdminHandler) GetTransaction(c *gin.Context) {
	res, err := h.ledger.GetTransaction(c.Request.Context(), c.Param("txn_no"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// ManualPostingRequest 人工入账请求
type ManualPostingRequest struct {
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	Type          string `json:"type" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	ContractNo    string `json:"contract_no" binding:"required"`
	Note          string `json:"note" binding:"max=255"`
}

// PostManual 人工入账
func (h *AdminHandler) PostManual(c *gin.Context) {
	var req ManualPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	amount, valid := parseAmount(c, req.Amount)
	if !valid {
		return
	}
	res, err := h.ledger.PostManual(c.Request.Context(), application.ManualPostingCommand{
		CustomerEmail:  req.CustomerEmail,
		Type:           domain.TransactionType(req.Type),
		Amount:         amount,
		ContractNo:     req.ContractNo,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
		Note:           req.Note,
		Operator:       c.GetHeader(HeaderOperator),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// NoteRequest 备注请求
type NoteRequest struct {
	Note string `json:"note" binding:"max=255"`
}

// Reverse 冲正
func (h *AdminHandler) Reverse(c *gin.Context) {
	var req NoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	res, err := h.ledger.Reverse(c.Request.Context(), application.ReverseCommand{
		TxnNo:    c.Param("txn_no"),
		Note:     req.Note,
		Operator: c.GetHeader(HeaderOperator),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// UpdateNote 修改备注
func (h *AdminHandler) UpdateNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.ledger.UpdateNote(c.Request.Context(), c.Param("txn_no"), req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}
