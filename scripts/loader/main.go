package main

import (
	"fmt"
	"io"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"

	"vrober/src/models"
)

// Atlas loader: prints the SQL schema derived from the gorm models so atlas
// can diff migrations against it.
func main() {
	stmts, err := gormschema.New("postgres").Load(
		&models.User{},
		&models.Vendor{},
		&models.Admin{},
		&models.Category{},
		&models.Service{},
		&models.Booking{},
		&models.Payment{},
		&models.WebhookEvent{},
		&models.JobTask{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
