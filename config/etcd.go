package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdOptions etcd 配置选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 请求超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// EtcdSource etcd 配置源
// 键 /greeter/web/port 在前缀为 /greeter 时映射为 web:port，
// 值依次尝试按 JSON、YAML 解析，都失败时作为字符串
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) newClient() (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return cli, nil
}

func (s *EtcdSource) prefix() string {
	if s.Options.Prefix == "" {
		return "/"
	}
	return s.Options.Prefix
}

func (s *EtcdSource) Load() (map[string]any, error) {
	cli, err := s.newClient()
	if err != nil {
		return nil, err
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	resp, err := cli.Get(ctx, s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		path, ok := etcdKeyToPath(string(kv.Key), s.Options.Prefix)
		if !ok {
			continue
		}
		setNestedValue(result, path, decodeEtcdValue(kv.Value))
	}
	return result, nil
}

// Watch 阻塞监听前缀下的变更，每批事件调用一次 onChange，直到 ctx 结束
func (s *EtcdSource) Watch(ctx context.Context, onChange func()) error {
	cli, err := s.newClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	for resp := range cli.Watch(ctx, s.prefix(), clientv3.WithPrefix()) {
		if err := resp.Err(); err != nil {
			return fmt.Errorf("etcd watch: %w", err)
		}
		if len(resp.Events) > 0 {
			onChange()
		}
	}
	return ctx.Err()
}

// etcdKeyToPath 去掉前缀和开头的斜杠，并把 / 转换为 :
func etcdKeyToPath(key, prefix string) (string, bool) {
	if prefix != "" {
		key = strings.TrimPrefix(key, prefix)
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", false
	}
	return strings.ReplaceAll(key, "/", ":"), true
}

func decodeEtcdValue(raw []byte) any {
	var jsonValue any
	if err := json.Unmarshal(raw, &jsonValue); err == nil {
		return jsonValue
	}
	var yamlValue any
	if err := yaml.Unmarshal(raw, &yamlValue); err == nil && yamlValue != nil {
		if _, scalar := yamlValue.(string); !scalar {
			return yamlValue
		}
	}
	return string(raw)
}
