package server

import (
	"time"

	"github.com/kataras/iris/v12"

	"github.com/Captain-Catto/online-store-sub001/internal/auth"
	"github.com/Captain-Catto/online-store-sub001/internal/config"
	"github.com/Captain-Catto/online-store-sub001/internal/infra/mq"
	"github.com/Captain-Catto/online-store-sub001/internal/infra/redis"
	"github.com/Captain-Catto/online-store-sub001/internal/middleware"
	"github.com/Captain-Catto/online-store-sub001/internal/repository/mysql"
	"github.com/Captain-Catto/online-store-sub001/internal/service"
)

// RegisterRoutes wires the customer-facing API.
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	voucherRepo := mysql.NewVoucherRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(db, productRepo)
	orderSvc := service.NewOrderService(db, orderRepo, mqConn)
	voucherSvc := service.NewVoucherService(voucherRepo)
	stockSvc := service.NewStockService(productRepo, redisClient)

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring,
		time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Email    string `json:"email"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Username, req.Password, req.Email)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": u})
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"token": token}})
	})

	// catalog
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListActive(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetWithVariants(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// cart preview: shipping fee, voucher check, stock check
	api.Post("/orders/shipping-fee", func(ctx iris.Context) {
		var req struct {
			Subtotal        int64  `json:"subtotal"`
			ShippingAddress string `json:"shippingAddress"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		fee := service.CalculateShippingFee(req.Subtotal, req.ShippingAddress)
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"shipping": fee}})
	})

	api.Post("/vouchers/validate", func(ctx iris.Context) {
		var req struct {
			Code     string `json:"code"`
			Subtotal int64  `json:"subtotal"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		v, discount, err := voucherSvc.Validate(ctx.Request().Context(), req.Code, req.Subtotal)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"voucher": v, "discount": discount}})
	})

	api.Post("/stock/check", func(ctx iris.Context) {
		var req struct {
			Items []service.StockCheckItem `json:"items"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		issues := stockSvc.Check(ctx.Request().Context(), req.Items)
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"valid":   len(issues) == 0,
			"invalid": issues,
		}})
	})

	// endpoints below require a logged-in user
	authAPI := api.Party("/", middleware.Auth(&cfg.JWT, tokenCache))

	authAPI.Post("/orders", middleware.CheckoutRateLimit(), func(ctx iris.Context) {
		var req struct {
			Items           []service.OrderItemInput `json:"items"`
			PaymentMethodID int                      `json:"paymentMethodId"`
			VoucherCode     string                   `json:"voucherCode"`
			VoucherID       *int64                   `json:"voucherId"`
			ShippingAddress string                   `json:"shippingAddress"`
			PhoneNumber     string                   `json:"phoneNumber"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}

		code := req.VoucherCode
		if code == "" && req.VoucherID != nil {
			v, err := voucherSvc.GetByID(ctx.Request().Context(), *req.VoucherID)
			if err != nil {
				fail(ctx, err)
				return
			}
			code = v.Code
		}

		userID := ctx.Values().GetInt64Default("user_id", 0)
		o, err := orderSvc.Create(ctx.Request().Context(), &service.CreateOrderInput{
			UserID:          userID,
			Items:           req.Items,
			VoucherCode:     code,
			PaymentMethodID: req.PaymentMethodID,
			ShippingAddress: req.ShippingAddress,
			PhoneNumber:     req.PhoneNumber,
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(201)
		ctx.JSON(iris.Map{"code": 0, "msg": "order created", "data": iris.Map{"orderId": o.ID}})
	})

	authAPI.Get("/orders", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		list, err := orderSvc.ListByUser(ctx.Request().Context(), userID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		userID := ctx.Values().GetInt64Default("user_id", 0)
		isAdmin := ctx.Values().GetString("role") == "admin"
		o, err := orderSvc.Get(ctx.Request().Context(), id, userID, isAdmin)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	authAPI.Put("/orders/{id:int64}/cancel", func(ctx iris.Context) {
		var req struct {
			CancelNote string `json:"cancelNote"`
		}
		_ = ctx.ReadJSON(&req) // body is optional
		id, _ := ctx.Params().GetInt64("id")
		userID := ctx.Values().GetInt64Default("user_id", 0)
		isAdmin := ctx.Values().GetString("role") == "admin"
		if err := orderSvc.Cancel(ctx.Request().Context(), id, userID, isAdmin, req.CancelNote); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "order cancelled"})
	})
}
