package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"souvenir/internal/catalog"
	"souvenir/internal/database"
	"souvenir/internal/domain"
	"souvenir/internal/repository"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "souvenir.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM orders")
	db.Exec("DELETE FROM year_counters")
	db.Exec("DELETE FROM users")

	ctx := context.Background()

	// ================== USERS ==================
	log.Println("Creating users...")

	admin := createUser(db, "admin@souvenir.by", "admin123", domain.RoleAdmin, "Администратор", "+375 29 111 11 11")
	log.Println("Admin created: admin@souvenir.by / admin123")

	createUser(db, "manager@souvenir.by", "manager123", domain.RoleManager, "Менеджер Ольга", "+375 29 222 22 22")
	log.Println("Manager created: manager@souvenir.by / manager123")

	masters := []*domain.User{
		createUser(db, "petr@souvenir.by", "master123", domain.RoleMaster, "Мастер Пётр", "+375 29 333 33 33"),
		createUser(db, "ivan@souvenir.by", "master123", domain.RoleMaster, "Мастер Иван", "+375 29 444 44 44"),
	}

	clients := []*domain.User{}
	clientEmails := []string{"alena@mail.by", "sergey@gmail.com", "marina@yandex.by"}
	for i, email := range clientEmails {
		client := createUser(db, email, "client123", domain.RoleClient,
			fmt.Sprintf("Клиент %d", i+1), fmt.Sprintf("+375 29 555 55 %02d", i+10))
		clients = append(clients, client)
	}

	// ================== ORDERS ==================
	log.Println("Creating orders...")

	counters := repository.NewCounterRepository(db)
	orders := repository.NewOrderRepository(db)
	year := time.Now().Year()

	statuses := []domain.OrderStatus{
		domain.StatusNew,
		domain.StatusClarification,
		domain.StatusInProgress,
		domain.StatusAwaitingPayment,
		domain.StatusCompleted,
	}
	productTypes := []string{
		"карандашница",
		"настенные часы",
		"письменный набор",
		"вечный календарь",
		"ключницы",
	}

	for i, productType := range productTypes {
		seq, err := counters.Next(ctx, year)
		if err != nil {
			log.Fatal("sequence failed:", err)
		}

		deadline := time.Now().AddDate(0, 0, 7*(i+1))
		o := &domain.Order{
			OrderNumber: domain.FormatOrderNumber(year, seq),
			ClientID:    clients[i%len(clients)].ID,
			Status:      statuses[i%len(statuses)],
			Description: fmt.Sprintf("Демо-заказ №%d: %s с гравировкой", i+1, productType),
			Deadline:    &deadline,
		}
		if info, ok := catalog.Lookup(productType); ok {
			min, max := info.Min, info.Max
			o.ProductType = productType
			o.PriceRange = info.RangeLabel
			o.PriceMin = &min
			o.PriceMax = &max
		}
		if o.Status != domain.StatusNew {
			masterID := masters[i%len(masters)].ID
			o.AssignedToID = &masterID
		}
		if o.Status == domain.StatusAwaitingPayment || o.Status == domain.StatusCompleted {
			price := o.PriceMin
			o.Price = price
		}

		if err := orders.Create(ctx, o); err != nil {
			log.Fatal("order creation failed:", err)
		}
		log.Printf("Order %s created for client %d", o.OrderNumber, o.ClientID)
	}

	log.Printf("Seed finished: admin %d, %d masters, %d clients, %d orders",
		admin.ID, len(masters), len(clients), len(productTypes))
}

func createUser(db *gorm.DB, email, password string, role domain.Role, fullName, phone string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		FullName:     fullName,
		Phone:        phone,
	}
	if err := db.Create(user).Error; err != nil {
		log.Fatal("user creation failed:", err)
	}
	return user
}
