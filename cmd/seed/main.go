package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/auth"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	"github.com/hackgods/salon-scheduling/internal/config"
	"github.com/hackgods/salon-scheduling/internal/db"
	"github.com/hackgods/salon-scheduling/internal/logger"
	"github.com/hackgods/salon-scheduling/internal/user"
)

const (
	masterCount  = 12
	clientCount  = 200
	seedPassword = "password"
	maxServices  = 4
	maxDuration  = 6
)

var serviceTitles = map[user.Role][]string{
	user.RoleVizazhist:  {"Day makeup", "Evening makeup", "Wedding makeup", "Makeup lesson"},
	user.RoleManicurist: {"Classic manicure", "Gel polish", "Nail extension", "Pedicure"},
	user.RoleStylist:    {"Haircut", "Coloring", "Styling", "Keratin treatment"},
	user.RoleBrowist:    {"Brow shaping", "Brow tinting", "Lash lift", "Brow lamination"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		log.Fatalf("seed needs STORE_DRIVER=%s", config.StoreDriverPostgres)
	}

	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	zl.Info("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}

	faker := gofakeit.New(time.Now().UnixNano())

	users := user.NewService(user.NewPgRepository(pool), auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), zl.Named("user"))
	cat := catalog.NewCatalog(catalog.NewPgRepository(pool), user.NewPgRepository(pool), zl.Named("catalog"))

	if err := seedMasters(context.Background(), faker, users, cat, masterCount, zl); err != nil {
		zl.Fatal("seed masters", zap.Error(err))
	}
	if err := seedClients(context.Background(), faker, users, clientCount, zl); err != nil {
		zl.Fatal("seed clients", zap.Error(err))
	}

	zl.Info("seed complete", zap.String("password", seedPassword))
}

func seedMasters(ctx context.Context, faker *gofakeit.Faker, users *user.Service, cat *catalog.Catalog, count int, zl *zap.Logger) error {
	zl.Info("seeding masters", zap.Int("count", count))

	masterRoles := user.Roles[1:]
	for i := 0; i < count; i++ {
		role := masterRoles[i%len(masterRoles)]
		sess, err := users.Register(ctx, user.RegisterInput{
			Login:       fmt.Sprintf("master%02d", i+1),
			Password:    seedPassword,
			FullName:    faker.Name(),
			PhoneNumber: faker.Numerify("+7##########"),
			Role:        role,
		})
		if err != nil {
			return err
		}

		titles := serviceTitles[role]
		n := faker.Number(1, maxServices)
		for j := 0; j < n && j < len(titles); j++ {
			_, err := cat.Create(ctx, catalog.Service{
				Title:          titles[j],
				DurationQuanta: faker.Number(1, maxDuration),
				Price:          float64(faker.Number(10, 150)),
				MasterID:       sess.User.ID,
			})
			if err != nil {
				return err
			}
		}
	}

	zl.Info("masters seeded")
	return nil
}

func seedClients(ctx context.Context, faker *gofakeit.Faker, users *user.Service, count int, zl *zap.Logger) error {
	zl.Info("seeding clients", zap.Int("count", count))

	for i := 0; i < count; i++ {
		_, err := users.Register(ctx, user.RegisterInput{
			Login:       fmt.Sprintf("client%03d", i+1),
			Password:    seedPassword,
			FullName:    faker.Name(),
			PhoneNumber: faker.Numerify("+7##########"),
			Role:        user.RoleClient,
		})
		if err != nil {
			return err
		}

		if (i+1)%50 == 0 {
			zl.Info("clients seeded", zap.Int("done", i+1), zap.Int("total", count))
		}
	}

	return nil
}
