package main

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikeMC777/printshop-orders/internal/database"
	"github.com/MikeMC777/printshop-orders/internal/product"
	"github.com/MikeMC777/printshop-orders/internal/settings"
)

var seedSettingsOnly bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a sample catalog and the default payment settings",
	Long: `Applies the schema, stores the payment simulation defaults from the environment in
the settings table (existing keys are left alone) and adds a small sample catalog.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedSettingsOnly, "settings-only", false, "Skip the sample catalog")
}

var sampleCatalog = []product.CreateProductRequest{
	{Name: "Photo mug", Description: "11oz ceramic, full wrap print", Price: "12.50", Stock: 40, Customizable: true, Categories: []string{"Mugs", "Gifts"}},
	{Name: "Business cards x250", Description: "350gsm matte, double sided", Price: "24.00", Stock: 100, Customizable: true, Categories: []string{"Stationery"}},
	{Name: "A2 poster", Description: "Satin photo paper", Price: "18.90", Stock: 25, Customizable: true, Categories: []string{"Posters"}},
	{Name: "Canvas print 40x60", Description: "Gallery wrapped, 2cm frame", Price: "59.00", Stock: 10, Customizable: true, Categories: []string{"Wall art", "Gifts"}},
	{Name: "Sticker sheet", Description: "Die-cut vinyl, 12 stickers", Price: "6.75", Stock: 200, Categories: []string{"Stickers"}},
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	defaults := map[string]string{
		settings.KeyPaymentSimulation:  strconv.FormatBool(cfg.PaymentSimulation),
		settings.KeyPaymentSuccessRate: strconv.Itoa(cfg.PaymentSuccessRate),
	}
	if err := seedSettings(ctx, db, defaults); err != nil {
		return err
	}
	log.Info("settings seeded", zap.Int("keys", len(defaults)))

	if seedSettingsOnly {
		return nil
	}
	repo := product.NewSQLRepo(db)
	for _, req := range sampleCatalog {
		p, err := req.Product()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
		log.Info("product seeded", zap.String("id", p.ID), zap.String("name", p.Name))
	}
	return nil
}

func seedSettings(ctx context.Context, db *sqlx.DB, values map[string]string) error {
	return database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for k, v := range values {
			_, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO settings (key, value) VALUES (?, ?)
				ON CONFLICT (key) DO NOTHING
			`), k, v)
			if err != nil {
				return database.Classify("seed setting "+k, err)
			}
		}
		return nil
	})
}
