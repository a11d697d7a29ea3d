package db

import (
	"fmt"
	"log"

	"github.com/telecure-health/telecure/models"
)

func Migrate() {
	// Initialize DB connection
	Init()

	err := DB.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.CreditPackage{},
		&models.CreditTransaction{},
		&models.Appointment{},
		&models.Penalty{},
		&models.Notification{},
		&models.AdminLog{},
		&models.PendingPayment{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	seedRoles()

	fmt.Println("✅ Migrations applied successfully!")
}

func seedRoles() {
	roles := []models.Role{
		{Name: models.RoleAdmin, Description: "Platform administrator"},
		{Name: models.RoleDoctor, Description: "Verified medical practitioner"},
		{Name: models.RolePatient, Description: "Patient who books consultations"},
	}
	for _, role := range roles {
		var existing models.Role
		if DB.Where("name = ?", role.Name).First(&existing).RowsAffected == 0 {
			DB.Create(&role)
		}
	}
}
