package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const demoPassword = "demopassword123"

func main() {
	authors := flag.Int("authors", 3, "Number of demo authors to register")
	posts := flag.Int("posts", 5, "Number of posts per author")
	flag.Usage = printUsage
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *authors < 1 || *posts < 0 {
		log.Fatal("--authors must be at least 1 and --posts must not be negative")
	}

	apiURL := "http://localhost:5000"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	client := NewAPIClient(apiURL)
	run := time.Now().Unix()

	log.WithFields(logrus.Fields{"api": apiURL, "authors": *authors, "posts": *posts}).Info("seeding")

	for i := 1; i <= *authors; i++ {
		username := fmt.Sprintf("author%d_%d", i, run)
		email := username + "@example.com"

		if _, _, err := client.Register(username, email, demoPassword); err != nil {
			log.WithError(err).Fatalf("failed to register %s", username)
		}

		// Log in as a real client would, to exercise the login path too.
		user, token, err := client.Login(email, demoPassword)
		if err != nil {
			log.WithError(err).Fatalf("failed to log in %s", username)
		}

		for j := 1; j <= *posts; j++ {
			var image *string
			if j%2 == 0 {
				url := fmt.Sprintf("https://picsum.photos/seed/%s-%d/800/400", username, j)
				image = &url
			}

			post, err := client.CreatePost(token,
				fmt.Sprintf("%s's post #%d", user.Username, j),
				fmt.Sprintf("Demo content %d written by %s.", j, user.Username),
				image)
			if err != nil {
				log.WithError(err).Fatalf("failed to create post for %s", username)
			}
			log.WithFields(logrus.Fields{"author": user.Username, "post": post.ID}).Debug("post created")
		}

		log.WithFields(logrus.Fields{"author": user.Username, "email": email}).Info("author seeded")
	}

	page, err := client.ListPosts(10, 0)
	if err != nil {
		log.WithError(err).Fatal("failed to list posts")
	}

	fmt.Println()
	fmt.Printf("Latest posts (%d total):\n", page.Pagination.Total)
	for _, post := range page.Data {
		fmt.Printf("  %s  %-30s by %s\n", post.CreatedAt.Format(time.RFC3339), post.Title, post.Author.Username)
	}
	fmt.Println()
	fmt.Printf("All demo accounts use the password %q\n", demoPassword)
}

func printUsage() {
	fmt.Println(`Blog Seeder - Development tool for populating a local backend

USAGE:
  seeder [options]

OPTIONS:
  -authors  Number of demo authors to register (default 3)
  -posts    Number of posts per author (default 5)

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:5000)

EXAMPLES:
  # Three authors with five posts each
  seeder

  # One prolific author
  seeder -authors=1 -posts=40`)
}
