package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

const settingDisplayPricesIncludingTax = "display_cart_prices_including_tax"

var _ SettingsRepository = (*PostgresSettingsRepository)(nil)

// PostgresSettingsRepository reads store settings from the store_settings
// key/value table.
type PostgresSettingsRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{
		db:     db,
		logger: logging.NewLogger("settings-repository"),
	}
}

// GetDisplaySettings loads display settings. A missing row means the
// setting is off.
func (r *PostgresSettingsRepository) GetDisplaySettings(ctx context.Context) (models.DisplaySettings, error) {
	var settings models.DisplaySettings

	value, ok, err := r.getSetting(ctx, settingDisplayPricesIncludingTax)
	if err != nil {
		return settings, err
	}
	if !ok {
		return settings, nil
	}

	include, err := parseSettingBool(value)
	if err != nil {
		r.logger.Warn("Unreadable setting, using default", logging.Fields{
			"key":   settingDisplayPricesIncludingTax,
			"value": value,
		})
		return settings, nil
	}

	settings.IncludeTaxInDisplayedPrice = include
	return settings, nil
}

func (r *PostgresSettingsRepository) getSetting(ctx context.Context, key string) (string, bool, error) {
	query := `
		SELECT value
		FROM store_settings
		WHERE key = $1
	`

	var value sql.NullString
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Failed to fetch setting", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return "", false, fmt.Errorf("fetch setting %s: %w", key, err)
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// parseSettingBool accepts the values WordPress-style option tables use.
func parseSettingBool(v string) (bool, error) {
	switch v {
	case "yes", "on":
		return true, nil
	case "no", "off", "":
		return false, nil
	}
	return strconv.ParseBool(v)
}
