package server

import (
	"time"

	"github.com/kataras/iris/v12"

	"github.com/Captain-Catto/online-store-sub001/internal/auth"
	"github.com/Captain-Catto/online-store-sub001/internal/config"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/order"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/product"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/voucher"
	"github.com/Captain-Catto/online-store-sub001/internal/infra/mq"
	"github.com/Captain-Catto/online-store-sub001/internal/infra/redis"
	"github.com/Captain-Catto/online-store-sub001/internal/middleware"
	"github.com/Captain-Catto/online-store-sub001/internal/repository/mysql"
	"github.com/Captain-Catto/online-store-sub001/internal/service"
)

// RegisterAdminRoutes wires the back-office API, served on its own port.
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	voucherRepo := mysql.NewVoucherRepository(db)

	productSvc := service.NewProductService(db, productRepo)
	orderSvc := service.NewOrderService(db, orderRepo, mqConn)
	voucherSvc := service.NewVoucherService(voucherRepo)

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring,
		time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api", middleware.Auth(&cfg.JWT, tokenCache), middleware.AdminOnly())

	// ---------- products ----------

	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
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

	api.Post("/products", func(ctx iris.Context) {
		var p product.Product
		if err := ctx.ReadJSON(&p); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := productSvc.Create(ctx.Request().Context(), &p); err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(201)
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	api.Put("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		var req struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if err := productSvc.Update(ctx.Request().Context(), p); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	api.Put("/products/{id:int64}/status", func(ctx iris.Context) {
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.SetStatus(ctx.Request().Context(), id, req.Status); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "status updated"})
	})

	api.Delete("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.Delete(ctx.Request().Context(), id); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "deleted"})
	})

	// ---------- variants & inventory ----------

	api.Post("/products/{id:int64}/details", func(ctx iris.Context) {
		var d product.ProductDetail
		if err := ctx.ReadJSON(&d); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		d.ProductID, _ = ctx.Params().GetInt64("id")
		if err := productSvc.CreateDetail(ctx.Request().Context(), &d); err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(201)
		ctx.JSON(iris.Map{"code": 0, "data": d})
	})

	api.Put("/details/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var d product.ProductDetail
		if err := ctx.ReadJSON(&d); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		d.ID = id
		if err := productSvc.UpdateDetail(ctx.Request().Context(), &d); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": d})
	})

	api.Delete("/details/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.DeleteDetail(ctx.Request().Context(), id); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "deleted"})
	})

	api.Put("/details/{id:int64}/inventory", func(ctx iris.Context) {
		var req struct {
			Size  string `json:"size"`
			Stock int64  `json:"stock"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.SetInventory(ctx.Request().Context(), id, req.Size, req.Stock); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "inventory updated"})
	})

	// ---------- vouchers ----------

	api.Get("/vouchers", func(ctx iris.Context) {
		list, err := voucherSvc.ListAll(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Post("/vouchers", func(ctx iris.Context) {
		var v voucher.Voucher
		if err := ctx.ReadJSON(&v); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := voucherSvc.Create(ctx.Request().Context(), &v); err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(201)
		ctx.JSON(iris.Map{"code": 0, "data": v})
	})

	api.Put("/vouchers/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		v, err := voucherSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		if err := ctx.ReadJSON(v); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		v.ID = id
		if err := voucherSvc.Update(ctx.Request().Context(), v); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": v})
	})

	api.Delete("/vouchers/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := voucherSvc.Delete(ctx.Request().Context(), id); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "deleted"})
	})

	// ---------- orders ----------

	api.Get("/orders", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := orderSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.Get(ctx.Request().Context(), id, 0, true)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	api.Put("/orders/{id:int64}/cancel", func(ctx iris.Context) {
		var req struct {
			CancelNote string `json:"cancelNote"`
		}
		_ = ctx.ReadJSON(&req) // body is optional
		id, _ := ctx.Params().GetInt64("id")
		adminID := ctx.Values().GetInt64Default("user_id", 0)
		if err := orderSvc.Cancel(ctx.Request().Context(), id, adminID, true, req.CancelNote); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "order cancelled"})
	})

	api.Put("/orders/{id:int64}/status", func(ctx iris.Context) {
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.UpdateStatus(ctx.Request().Context(), id, order.Status(req.Status))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "status updated", "data": o})
	})

	api.Put("/orders/{id:int64}/payment-status", func(ctx iris.Context) {
		var req struct {
			PaymentStatusID int `json:"paymentStatusId"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.UpdatePaymentStatus(ctx.Request().Context(), id, req.PaymentStatusID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "payment status updated", "data": o})
	})

	api.Post("/orders/{id:int64}/refund", func(ctx iris.Context) {
		var req struct {
			Amount int64  `json:"amount"`
			Reason string `json:"reason"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.Refund(ctx.Request().Context(), id, req.Amount, req.Reason)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "refund recorded", "data": o})
	})

	// ---------- stats ----------

	api.Get("/stats", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "data": service.GetMonitor().GetStats()})
	})
}
