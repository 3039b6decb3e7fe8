package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spsports/sps-backend/config"
	"github.com/spsports/sps-backend/internal/app/repository"
	"github.com/spsports/sps-backend/internal/app/service"
	"github.com/spsports/sps-backend/internal/db"
	"github.com/spsports/sps-backend/pkg/sizing"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <catalog.xlsx> [-y]")
	}

	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "-y"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open catalog:", err)
	}
	defer file.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	report, err := readCatalog(file)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	for _, reason := range report.Skipped {
		fmt.Printf("Skipped %s\n", reason)
	}
	fmt.Printf("Products to import: %d (skipped %d)\n", len(report.Products), len(report.Skipped))
	if len(report.Products) == 0 {
		return
	}

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// image cells already hold URLs, so no uploader is needed
	productService := service.NewProductService(repository.NewProductRepository(db.GetDB()), sizing.DefaultTable(), nil)

	imported, err := importCatalog(context.Background(), productService, report.Products)
	if err != nil {
		log.Fatalf("Import stopped after %d products: %v", imported, err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", imported)
}

// importCatalog creates products one by one so each gets its derived sizes.
func importCatalog(ctx context.Context, products service.ProductService, inputs []service.ProductInput) (int, error) {
	for i, input := range inputs {
		if _, err := products.CreateProduct(ctx, input, nil); err != nil {
			return i, fmt.Errorf("%s: %w", input.Name, err)
		}
	}
	return len(inputs), nil
}
