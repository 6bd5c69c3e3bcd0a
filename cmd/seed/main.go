package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"newsrec/internal/database"
	"newsrec/internal/models"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

// Seeds the database with demo categories, articles, summaries and one
// demo reader so the recommendation endpoints return something useful
// on a fresh install.

var categoryNames = []string{
	"Thời sự", "Thế giới", "Kinh doanh", "Thể thao", "Giải trí",
	"Công nghệ", "Sức khỏe", "Giáo dục",
}

func main() {
	var articlesPerCategory = flag.Int("articles", 5, "Articles to seed per category")
	var demoEmail = flag.String("email", "demo@newsrec.local", "Email of the demo reader")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	db := database.DB

	log.Printf("Seeding %d categories...", len(categoryNames))
	categories := make([]models.Category, 0, len(categoryNames))
	for _, name := range categoryNames {
		category := models.Category{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&category).Error; err != nil {
			log.Fatalf("Failed to seed category %q: %v", name, err)
		}
		categories = append(categories, category)
	}

	log.Printf("Seeding %d articles per category with summaries...", *articlesPerCategory)
	for _, category := range categories {
		for i := 0; i < *articlesPerCategory; i++ {
			url := fmt.Sprintf("https://news.example.vn/%s/%d", category.ID, i)

			var article models.Article
			err := db.Where("url = ?", url).FirstOrCreate(&article, models.Article{
				Title:       fmt.Sprintf("%s: bản tin số %d", category.Name, i+1),
				Content:     fmt.Sprintf("Nội dung chi tiết của bản tin %s số %d.", category.Name, i+1),
				URL:         url,
				PublishedAt: ptrTime(time.Now().Add(-time.Duration(i) * 24 * time.Hour)),
			}).Error
			if err != nil {
				log.Fatalf("Failed to seed article: %v", err)
			}

			relation := models.ArticleCategory{ArticleID: article.ID, CategoryID: category.ID}
			if err := db.Where("article_id = ? AND category_id = ?", article.ID, category.ID).
				FirstOrCreate(&relation).Error; err != nil {
				log.Fatalf("Failed to link article to category: %v", err)
			}

			summary := models.Summary{
				ArticleID:   article.ID,
				SummaryText: fmt.Sprintf("Tóm tắt bản tin %s số %d.", category.Name, i+1),
			}
			if err := db.Where("article_id = ?", article.ID).FirstOrCreate(&summary).Error; err != nil {
				log.Fatalf("Failed to seed summary: %v", err)
			}
		}
	}

	log.Printf("Seeding demo reader %s...", *demoEmail)
	user := models.User{Email: *demoEmail, DisplayName: "Demo Reader"}
	if err := db.Where("email = ?", *demoEmail).FirstOrCreate(&user).Error; err != nil {
		log.Fatalf("Failed to seed demo reader: %v", err)
	}

	pref := models.UserPreference{
		UserID:           user.ID,
		FavoriteKeywords: pq.StringArray{"bóng đá", "công nghệ"},
	}
	if err := db.Where("user_id = ?", user.ID).FirstOrCreate(&pref).Error; err != nil {
		log.Fatalf("Failed to seed preference: %v", err)
	}

	history := models.SearchHistory{UserID: user.ID, Query: "giá xăng"}
	if err := db.Where("user_id = ? AND query = ?", user.ID, history.Query).
		FirstOrCreate(&history).Error; err != nil {
		log.Fatalf("Failed to seed search history: %v", err)
	}

	log.Println("Seeding complete")
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
