// Command annotate is a terminal annotation client. It drives the same
// session state machine as the web UI against a local cache, an in-memory
// store, or a running annotation server.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/panolabel/panolabel/internal/annotations"
	"github.com/panolabel/panolabel/internal/config"
	"github.com/panolabel/panolabel/internal/dataset"
	"github.com/panolabel/panolabel/internal/session"
	"github.com/panolabel/panolabel/internal/tasks"
	"github.com/panolabel/panolabel/internal/users"
)

func main() {
	var (
		storeKind = flag.String("store", "local", "Annotation store: local, memory, or rest")
		apiBase   = flag.String("api", "http://localhost:8080/api", "Server base URL for the rest store")
		username  = flag.String("user", "", "Username for server login (rest store)")
		password  = flag.String("password", "", "Password for server login (rest store)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	var (
		remote annotations.Store
		userID string
	)

	switch *storeKind {
	case "local":
	case "memory":
		remote = annotations.NewMemoryStore()
	case "rest":
		remote = annotations.NewRestStore(*apiBase, cfg.Annotations.StoreTimeoutDuration())
		if *username != "" {
			u, err := login(*apiBase, *username, *password)
			if err != nil {
				log.Fatal("login failed:", err)
			}
			userID = u.ID.String()
			fmt.Printf("logged in as %s\n", u.Username)
		}
	default:
		log.Fatalf("unknown store %q", *storeKind)
	}

	source := dataset.NewSource(&cfg.Dataset, logger)
	taskResolver := tasks.NewResolver(
		source,
		nil,
		dataset.StableIDs,
		logger,
		cfg.Annotations.StoreTimeoutDuration(),
	)

	annotationResolver := annotations.NewResolver(
		remote,
		annotations.NewCache(cfg.Annotations.Dir, cfg.Annotations.Key),
		logger,
		cfg.Annotations.StoreTimeoutDuration(),
	)

	sess := session.New(taskResolver, annotationResolver, userID, &cfg.Session, logger)

	ctx := context.Background()
	if err := sess.Start(ctx); err != nil {
		log.Fatal("session start failed:", err)
	}
	defer sess.Close(ctx)

	fmt.Println(`commands: show, answer <n> <text>, conf <n> <1-5>, save, progress, done, next, prev, quit`)
	show(sess)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if !dispatch(ctx, sess, scanner.Text()) {
			return
		}
	}
}

// dispatch runs one command line; it returns false when the session should end.
func dispatch(ctx context.Context, sess *session.Session, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "quit", "q", "exit":
		return false

	case "show":
		show(sess)

	case "answer":
		if len(fields) < 3 {
			fmt.Println("usage: answer <n> <text>")
			return true
		}
		q, ok := questionAt(sess, fields[1])
		if !ok {
			return true
		}
		if err := sess.SetAnswer(q.ID, strings.Join(fields[2:], " ")); err != nil {
			fmt.Println("error:", err)
		}

	case "conf":
		if len(fields) != 3 {
			fmt.Println("usage: conf <n> <1-5>")
			return true
		}
		q, ok := questionAt(sess, fields[1])
		if !ok {
			return true
		}
		confidence, err := strconv.Atoi(fields[2])
		if err != nil {
			fmt.Println("confidence must be a number")
			return true
		}
		if err := sess.SetConfidence(q.ID, confidence); err != nil {
			fmt.Println("error:", err)
		}

	case "save":
		if err := sess.Save(ctx); err != nil {
			fmt.Println("error:", err)
		} else {
			fmt.Println("saved")
		}

	case "progress":
		p, err := sess.Progress(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return true
		}
		fmt.Printf("%d/%d complete, %d in progress\n", p.Completed, p.Total, p.InProgress)

	case "done":
		more, err := sess.Complete(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return true
		}
		if !more {
			fmt.Println("all tasks finished")
			return false
		}
		show(sess)

	case "next":
		if err := sess.Next(ctx); err != nil {
			fmt.Println("error:", err)
			return true
		}
		show(sess)

	case "prev":
		if err := sess.Prev(ctx); err != nil {
			fmt.Println("error:", err)
			return true
		}
		show(sess)

	default:
		fmt.Println("unknown command:", fields[0])
	}

	return true
}

func show(sess *session.Session) {
	task, annotation, err := sess.Current()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	pos := sess.Position()
	fmt.Printf("\ntask %d/%d: %s\n", pos.Index+1, pos.Total, task.ImageID)
	if task.Caption != "" {
		fmt.Println(task.Caption)
	}

	for i, q := range task.Questions {
		fmt.Printf("%2d. [%s] %s\n", i+1, q.Attribute, q.Question)
		if answer := annotation.AnswerFor(q.ID); answer != nil {
			fmt.Printf("    -> %s (confidence %d)\n", answer.Answer, answer.Confidence)
		} else if q.SuggestedAnswer != "" {
			fmt.Printf("    suggested: %s\n", q.SuggestedAnswer)
		}
	}
}

func questionAt(sess *session.Session, arg string) (tasks.Question, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Println("question number must be an integer")
		return tasks.Question{}, false
	}

	task, _, err := sess.Current()
	if err != nil {
		fmt.Println("error:", err)
		return tasks.Question{}, false
	}

	if n < 1 || n > len(task.Questions) {
		fmt.Printf("question number must be 1-%d\n", len(task.Questions))
		return tasks.Question{}, false
	}
	return task.Questions[n-1], true
}

func login(base, username, password string) (*users.User, error) {
	body, err := json.Marshal(users.Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(
		strings.TrimRight(base, "/")+"/auth/login",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login returned %d", resp.StatusCode)
	}

	var result users.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.User, nil
}
