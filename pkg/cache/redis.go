package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// InitRedis 初始化 Redis 连接
// 连接失败时返回 nil，调用方自行降级（直查数据库），不中断启动
func InitRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		log.Println("[Cache] 未配置 Redis 地址，缓存功能降级为直查")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[Cache] Redis 连接失败，缓存功能降级: %v", err)
		return nil
	}

	log.Println("[Cache] Redis 连接成功")
	return client
}
