package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
)

// seedCoin is one coin in the venue's initial listing. Prices are cents;
// start and current price are equal until trading moves them.
type seedCoin struct {
	name  string
	price int64
}

var seedCoins = []seedCoin{
	{"Crystal", 5_00},
	{"Liora", 10_00},
	{"Valora", 25_00},
	{"Solstice", 50_00},
	{"Aureum", 100_00},
	{"Veyron", 125_00},
	{"Celestia", 250_00},
	{"Opalis", 375_00},
	{"Zenithra", 500_00},
	{"Novaris", 625_00},
	{"Luminar", 750_00},
	{"Stellar", 875_00},
	{"Astra", 1000_00},
	{"Nebiros", 1250_00},
	{"Elysium", 1500_00},
	{"Aurion", 1750_00},
	{"Imperium", 2000_00},
	{"Solara", 2250_00},
	{"Astralis", 2500_00},
}

// Seed inserts the initial coin listing and the operator account in one
// transaction. Safe to run repeatedly: existing rows are left untouched.
func (db *DB) Seed(ctx context.Context) error {
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, c := range seedCoins {
			_, err := tx.Exec(ctx, `
				INSERT INTO coins (name, start_price, current_price)
				VALUES ($1, $2, $2)
				ON CONFLICT (name) DO NOTHING
			`, c.name, c.price)
			if err != nil {
				return fmt.Errorf("failed to seed coin %s: %w", c.name, err)
			}
		}

		// Operator account. The password hash is provisioned out of band; the
		// placeholder cannot match any password.
		_, err := tx.Exec(ctx, `
			INSERT INTO users (username, password_hash, phone, balance, is_admin)
			VALUES ('Admin', '!', '12345', 0, TRUE)
			ON CONFLICT (username) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to seed operator account: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Seeded %d coins and operator account", len(seedCoins))
	return nil
}
