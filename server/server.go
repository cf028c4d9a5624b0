package server

import "context"

// Server 定义了可被 app 统一管理生命周期的组件。
type Server interface {
	// Start 阻塞运行，直到 ctx 被取消或发生错误。
	Start(ctx context.Context) error
	// Stop 优雅停止并释放资源。
	Stop(ctx context.Context) error
}
