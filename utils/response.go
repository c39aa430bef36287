package utils

import "github.com/gofiber/fiber/v2"

// Response is the body of every successful request.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func SendData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Response{Success: true, Data: data})
}
