package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/creditline/internal/loan/application"
	"github.com/wyfcoding/creditline/internal/loan/domain"
)

const (
	HeaderCustomerID     = "X-Customer-ID"
	HeaderOperator       = "X-Operator"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// LoanHandler 客户侧接口，客户身份由网关鉴权后写入 X-Customer-ID
type LoanHandler struct {
	apps   *application.ApplicationService
	ledger *application.LedgerService
}

// NewLoanHandler 创建客户侧处理器
func NewLoanHandler(apps *application.ApplicationService, ledger *application.LedgerService) *LoanHandler {
	return &LoanHandler{apps: apps, ledger: ledger}
}

// RegisterRoutes 注册路由
func (h *LoanHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/loan", requireHeader(HeaderCustomerID))
	{
		api.GET("/occupations", h.Occupations)
		api.POST("/applications", h.Submit)
		api.GET("/applications/current", h.Current)
		api.GET("/applications/:id/contract", h.Contract)
		api.POST("/applications/:id/otp", h.SendOtp)
		api.POST("/applications/:id/sign", h.Sign)
		api.GET("/account", h.Account)
		api.GET("/transactions", h.Transactions)
		api.POST("/repayments", h.Repay)
		api.POST("/redraws", h.Redraw)
	}
}

func requireHeader(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(name) == "" {
			badRequest(c, name+" header is required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func customerID(c *gin.Context) string {
	return c.GetHeader(HeaderCustomerID)
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid application id")
		return 0, false
	}
	return uint(id), true
}

func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		badRequest(c, "invalid amount")
		return decimal.Zero, false
	}
	return amount, true
}

// Occupations 职业列表
func (h *LoanHandler) Occupations(c *gin.Context) {
	ok(c, h.apps.Occupations())
}

// SubmitRequest 申请表单
type SubmitRequest struct {
	FullName           string `json:"full_name" binding:"required"`
	NationalID         string `json:"national_id" binding:"required"`
	HomeAddress        string `json:"home_address" binding:"required"`
	Age                int    `json:"age" binding:"required"`
	Occupation         string `json:"occupation" binding:"required"`
	MonthlyIncome      string `json:"monthly_income" binding:"required"`
	MonthlyDebtPayment string `json:"monthly_debt_payment"`
}

// Submit 提交申请
func (h *LoanHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	income, valid := parseAmount(c, req.MonthlyIncome)
	if !valid {
		return
	}
	debt := decimal.Zero
	if req.MonthlyDebtPayment != "" {
		if debt, valid = parseAmount(c, req.MonthlyDebtPayment); !valid {
			return
		}
	}

	res, err := h.apps.Submit(c.Request.Context(), application.SubmitCommand{
		CustomerID: customerID(c),
		Applicant: domain.ApplicantProfile{
			FullName:           req.FullName,
			NationalID:         req.NationalID,
			HomeAddress:        req.HomeAddress,
			Age:                req.Age,
			Occupation:         req.Occupation,
			MonthlyIncome:      income,
			MonthlyDebtPayment: debt,
		},
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Current 当前申请
func (h *LoanHandler) Current(c *gin.Context) {
	res, err := h.apps.GetCurrent(c.Request.Context(), customerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Contract 合同预览
func (h *LoanHandler) Contract(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	res, err := h.apps.ContractPreview(c.Request.Context(), customerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// SendOtp 下发签署验证码
func (h *LoanHandler) SendOtp(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	res, err := h.apps.SendOtp(c.Request.Context(), customerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// SignRequest 签署请求
type SignRequest struct {
	OtpToken   string `json:"otp_token" binding:"required"`
	OtpCode    string `json:"otp_code" binding:"required"`
	AgreeTerms bool   `json:"agree_terms"`
}

// Sign 签署合同并放款
func (h *LoanHandler) Sign(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.apps.Sign(c.Request.Context(), application.SignCommand{
		CustomerID:     customerID(c),
		ApplicationID:  id,
		OtpToken:       req.OtpToken,
		OtpCode:        req.OtpCode,
		AgreeTerms:     req.AgreeTerms,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Account 账户摘要
func (h *LoanHandler) Account(c *gin.Context) {
	res, err := h.ledger.GetAccountSummary(c.Request.Context(), customerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Transactions 最近流水
func (h *LoanHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	res, err := h.ledger.RecentTransactions(c.Request.Context(), customerID(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// PostingRequest 还款与再支用请求
type PostingRequest struct {
	Amount     string `json:"amount" binding:"required"`
	ContractNo string `json:"contract_no"`
}

// Repay 还款
func (h *LoanHandler) Repay(c *gin.Context) {
	var req PostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	amount, valid := parseAmount(c, req.Amount)
	if !valid {
		return
	}
	res, err := h.ledger.Repay(c.Request.Context(), application.RepayCommand{
		CustomerID:     customerID(c),
		Amount:         amount,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
		ContractNo:     req.ContractNo,
		Source:         domain.SourceApp,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Redraw 再支用
func (h *LoanHandler) Redraw(c *gin.Context) {
	var req PostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	amount, valid := parseAmount(c, req.Amount)
	if !valid {
		return
	}
	res, err := h.ledger.Redraw(c.Request.Context(), application.RedrawCommand{
		CustomerID:     customerID(c),
		Amount:         amount,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
		ContractNo:     req.ContractNo,
		Source:         domain.SourceApp,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}
