package web

import "github.com/gofiber/fiber/v3"

// Register mounts every API route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	p := router.Group("/processes")
	p.Get("/", h.GetProcesses)
	p.Post("/", h.CreateProcess)
	p.Post("/import", h.ImportProcesses)
	p.Get("/export", h.ExportProcesses)
	p.Get("/:id", h.GetProcess)
	p.Put("/:id", h.UpdateProcess)
	p.Delete("/:id", h.DeleteProcess)
	p.Post("/:id/start", h.StartProcess)

	i := router.Group("/instances")
	i.Get("/", h.GetInstances)
	i.Get("/:id", h.GetInstance)
	i.Post("/:id/pause", h.PauseInstance)
	i.Post("/:id/resume", h.ResumeInstance)

	t := router.Group("/tasks")
	t.Get("/", h.GetTasks)
	t.Post("/", h.CreateTask)
	t.Get("/:id", h.GetTask)
	t.Patch("/:id/status", h.UpdateTaskStatus)
	t.Delete("/:id", h.DeleteTask)

	o := router.Group("/org")
	o.Get("/positions", h.GetPositions)
	o.Get("/positions/:id", h.GetPosition)
	o.Put("/positions/:id", h.SavePosition)
	o.Delete("/positions/:id", h.DeletePosition)
	o.Get("/positions/:id/chain", h.GetPositionChain)
	o.Get("/users", h.GetUsers)
	o.Get("/users/:id", h.GetUser)
	o.Put("/users/:id", h.SaveUser)

	router.Get("/health", h.HealthCheck)
}
