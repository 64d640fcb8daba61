// Package service contains the business logic between the HTTP handlers and
// the repositories: validation, ownership checks, the adoption lifecycle and
// outbound notifications.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"refugio/internal/mailer"
	"refugio/internal/media"
	"refugio/internal/middleware"
	"refugio/internal/models"
)

// Notifier queues and sends transactional email. Tasks run on a single
// worker goroutine in enqueue order, so the emails triggered by one action
// (an accepted adoption and its cascade rejections) leave in a stable order
// and never block the request path.
type Notifier struct {
	sender      mailer.Sender
	store       media.Store
	frontendURL string
	adminEmail  string
	logoPath    string

	tasks chan func()
	sync  bool
}

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	FrontendURL string
	AdminEmail  string
	// LogoPath optionally points at an image attached inline as the header
	// logo of every template. Empty disables it.
	LogoPath string
	// Synchronous runs tasks inline instead of on the worker. Tests use this.
	Synchronous bool
}

// NewNotifier builds a Notifier and starts its worker unless synchronous.
func NewNotifier(sender mailer.Sender, store media.Store, opts NotifierOptions) *Notifier {
	n := &Notifier{
		sender:      sender,
		store:       store,
		frontendURL: opts.FrontendURL,
		adminEmail:  opts.AdminEmail,
		logoPath:    opts.LogoPath,
		sync:        opts.Synchronous,
	}
	if !n.sync {
		n.tasks = make(chan func(), 256)
		go n.worker()
	}
	return n
}

func (n *Notifier) worker() {
	for task := range n.tasks {
		task()
	}
}

// Close stops accepting tasks and lets the worker drain.
func (n *Notifier) Close() {
	if n.tasks != nil {
		close(n.tasks)
	}
}

func (n *Notifier) enqueue(task func()) {
	if n.sync {
		task()
		return
	}
	select {
	case n.tasks <- task:
	default:
		middleware.Logger.Warn("notification queue full, dropping email task")
	}
}

// send delivers one message on the worker with a fresh timeout context,
// detached from the request that triggered it.
func (n *Notifier) send(msg mailer.Message) {
	n.enqueue(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := n.sender.Send(ctx, msg); err != nil {
			middleware.Logger.Error("email delivery failed",
				slog.String("template", msg.Template),
				slog.String("error", err.Error()),
			)
		}
	})
}

func (n *Notifier) inline(extra map[string]string) map[string]string {
	images := make(map[string]string, len(extra)+1)
	if n.logoPath != "" {
		images["logo"] = n.logoPath
	}
	for cid, src := range extra {
		if src != "" {
			images[cid] = src
		}
	}
	return images
}

// Welcome greets a newly registered user.
func (n *Notifier) Welcome(user *models.User) {
	n.send(mailer.Message{
		To:       []string{user.Email},
		Subject:  "Bienvenido/a al refugio",
		Template: mailer.TemplateWelcome,
		Data: map[string]any{
			"Nombre":           user.DisplayName(),
			"RecibirNovedades": user.RecibirNovedades,
			"FrontendURL":      n.frontendURL,
		},
		InlineImages: n.inline(nil),
	})
}

// AdoptionCreated tells staff a new request needs review. The animal's photo
// rides along inline.
func (n *Notifier) AdoptionCreated(req *models.AdoptionRequest) {
	if req.Animal == nil || req.User == nil {
		return
	}
	animalImg := n.store.URL(req.Animal.ImagenKey)
	n.send(mailer.Message{
		To:       []string{n.adminEmail},
		Subject:  fmt.Sprintf("Nueva solicitud de adopción: %s", req.Animal.Nombre),
		Template: mailer.TemplateAdoptionCreated,
		Data: map[string]any{
			"Usuario":      req.User.Username,
			"Email":        req.User.Email,
			"Animal":       req.Animal.Nombre,
			"AnimalImagen": animalImg,
			"FrontendURL":  n.frontendURL,
		},
		InlineImages: n.inline(map[string]string{"animal": animalImg}),
	})
}

// AdoptionAccepted congratulates the adopter.
func (n *Notifier) AdoptionAccepted(req *models.AdoptionRequest) {
	if req.Animal == nil || req.User == nil {
		return
	}
	animalImg := n.store.URL(req.Animal.ImagenKey)
	n.send(mailer.Message{
		To:       []string{req.User.Email},
		Subject:  fmt.Sprintf("Tu solicitud para adoptar a %s ha sido aceptada", req.Animal.Nombre),
		Template: mailer.TemplateAdoptionAccepted,
		Data: map[string]any{
			"Nombre":       req.User.DisplayName(),
			"Animal":       req.Animal.Nombre,
			"AnimalImagen": animalImg,
		},
		InlineImages: n.inline(map[string]string{"animal": animalImg}),
	})
}

// AdoptionRejected informs an applicant their request was denied, whether
// directly or through the cascade when someone else was accepted.
func (n *Notifier) AdoptionRejected(user *models.User, animal *models.Animal) {
	if user == nil || animal == nil {
		return
	}
	n.send(mailer.Message{
		To:       []string{user.Email},
		Subject:  fmt.Sprintf("Tu solicitud para adoptar a %s ha sido rechazada", animal.Nombre),
		Template: mailer.TemplateAdoptionRejected,
		Data: map[string]any{
			"Nombre":      user.DisplayName(),
			"Animal":      animal.Nombre,
			"FrontendURL": n.frontendURL,
		},
		InlineImages: n.inline(nil),
	})
}

// NewAnimal fans out the arrival announcement to newsletter subscribers,
// one message per recipient so addresses stay private.
func (n *Notifier) NewAnimal(animal *models.Animal, subscribers []models.User) {
	img := n.store.URL(animal.ImagenKey)
	for _, user := range subscribers {
		n.send(mailer.Message{
			To:       []string{user.Email},
			Subject:  fmt.Sprintf("¡%s ha llegado al refugio!", animal.Nombre),
			Template: mailer.TemplateNewAnimal,
			Data: map[string]any{
				"ID":          animal.ID,
				"Nombre":      animal.Nombre,
				"Edad":        animal.Edad,
				"Situacion":   animal.Situacion,
				"Imagen":      img,
				"FrontendURL": n.frontendURL,
			},
			InlineImages: n.inline(map[string]string{"animal": img}),
		})
	}
}

// NewNews fans out a published post to newsletter subscribers.
func (n *Notifier) NewNews(post *models.NewsPost, subscribers []models.User) {
	img := n.store.URL(post.ImagenKey)
	resumen := post.Contenido
	if len([]rune(resumen)) > 200 {
		resumen = string([]rune(resumen)[:200]) + "…"
	}
	for _, user := range subscribers {
		n.send(mailer.Message{
			To:       []string{user.Email},
			Subject:  post.Titulo,
			Template: mailer.TemplateNewNews,
			Data: map[string]any{
				"ID":          post.ID,
				"Titulo":      post.Titulo,
				"Resumen":     resumen,
				"Imagen":      img,
				"FrontendURL": n.frontendURL,
			},
			InlineImages: n.inline(map[string]string{"noticia": img}),
		})
	}
}

// PasswordReset sends the single-use reset link.
func (n *Notifier) PasswordReset(user *models.User, token string) {
	n.send(mailer.Message{
		To:       []string{user.Email},
		Subject:  "Restablecer tu contraseña",
		Template: mailer.TemplatePasswordReset,
		Data: map[string]any{
			"Nombre":   user.DisplayName(),
			"ResetURL": fmt.Sprintf("%s/restablecer?token=%s", n.frontendURL, token),
		},
		InlineImages: n.inline(nil),
	})
}

// ContactMessage forwards a contact-form submission to the shelter inbox.
func (n *Notifier) ContactMessage(nombre, email, asunto, mensaje string) {
	n.send(mailer.Message{
		To:       []string{n.adminEmail},
		Subject:  fmt.Sprintf("Contacto: %s", asunto),
		Template: mailer.TemplateContact,
		Data: map[string]any{
			"Nombre":  nombre,
			"Email":   email,
			"Asunto":  asunto,
			"Mensaje": mensaje,
		},
	})
}
