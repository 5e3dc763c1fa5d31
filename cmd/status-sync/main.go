package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/Captain-Catto/online-store-sub001/internal/config"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/product"
	"github.com/Captain-Catto/online-store-sub001/internal/infra/redis"
	"github.com/Captain-Catto/online-store-sub001/internal/repository/mysql"
	"github.com/Captain-Catto/online-store-sub001/internal/service"
)

const checkInterval = 5 * time.Minute

// status-sync periodically re-derives Product.status from live stock and
// primes the Redis stock cache. Transactional mutations already reconcile
// inline; this sweep repairs drift from racing writers on different variants
// of the same product (last-committer-wins on the status column).
func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	productRepo := mysql.NewProductRepository(db)
	productSvc := service.NewProductService(db, productRepo)

	log.Println("product status sync started")
	log.Printf("check interval: %v", checkInterval)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	sweep(context.Background(), productRepo, productSvc, redisClient)

	for range ticker.C {
		sweep(context.Background(), productRepo, productSvc, redisClient)
	}
}

func sweep(ctx context.Context, repo product.Repository, svc *service.ProductService, redisClient radix.Client) {
	products, err := repo.ListAll(ctx)
	if err != nil {
		log.Printf("list products failed: %v", err)
		return
	}

	fixed := 0
	for _, p := range products {
		if p.Status == product.StatusDraft {
			continue
		}

		total, err := repo.TotalStock(ctx, p.ID)
		if err != nil {
			log.Printf("sum stock for product %d failed: %v", p.ID, err)
			continue
		}

		want := product.StatusActive
		if total == 0 {
			want = product.StatusOutOfStock
		}
		if p.Status != want {
			log.Printf("product %d (%s): status %s but total stock %d, reconciling",
				p.ID, p.Name, p.Status, total)
			if err := svc.Reconcile(ctx, p.ID); err != nil {
				log.Printf("reconcile product %d failed: %v", p.ID, err)
				continue
			}
			fixed++
		}

		primeStockCache(ctx, repo, redisClient, p.ID)
	}

	log.Printf("status sweep done, reconciled %d products", fixed)
}

// primeStockCache refreshes the per-(variant, size) stock keys the
// availability check reads.
func primeStockCache(ctx context.Context, repo product.Repository, redisClient radix.Client, productID int64) {
	details, err := repo.ListDetails(ctx, productID)
	if err != nil {
		log.Printf("list details for product %d failed: %v", productID, err)
		return
	}
	for _, d := range details {
		for _, inv := range d.Inventories {
			key := fmt.Sprintf("stock:%d:%s", d.ID, inv.Size)
			if err := redisClient.Do(radix.FlatCmd(nil, "SETEX", key, 300, inv.Stock)); err != nil {
				log.Printf("prime stock cache %s failed: %v", key, err)
				return
			}
		}
	}
}
