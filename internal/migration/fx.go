package migration

import (
	"github.com/smallbiznis/tutorledger/internal/config"
	feedbackdomain "github.com/smallbiznis/tutorledger/internal/feedback/domain"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	invoicedomain "github.com/smallbiznis/tutorledger/internal/invoice/domain"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	paymentdomain "github.com/smallbiznis/tutorledger/internal/payment/domain"
	"github.com/smallbiznis/tutorledger/internal/seed"
	studentdomain "github.com/smallbiznis/tutorledger/internal/student/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType != "postgres" {
			// Dev path. Production schemas run the embedded SQL below.
			log.Info("auto-migrating schema", zap.String("db_type", cfg.DBType))
			if err := conn.AutoMigrate(
				&seed.Organization{},
				&guardiandomain.Guardian{},
				&studentdomain.Student{},
				&lessondomain.Lesson{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&paymentdomain.Payment{},
				&feedbackdomain.Feedback{},
			); err != nil {
				return err
			}
			return seed.EnsureDefaultOrg(conn, cfg.DefaultOrgID)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		return seed.EnsureDefaultOrg(conn, cfg.DefaultOrgID)
	}),
)
