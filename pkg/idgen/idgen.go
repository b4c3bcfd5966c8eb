// Package idgen 基于雪花算法生成业务编号
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator 业务编号生成器
type Generator struct {
	node *snowflake.Node
}

// New 创建生成器，node 取值 0-1023，多实例部署时必须互不相同
func New(node int64) (*Generator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Generator{node: n}, nil
}

// Next 返回 prefix + 16 位大写十六进制编号
func (g *Generator) Next(prefix string) string {
	return fmt.Sprintf("%s%016X", prefix, g.node.Generate().Int64())
}
