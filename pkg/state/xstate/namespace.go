package xstate

import "strings"

// keySeparator 命名空间与键名之间的分隔符。
const keySeparator = ":"

// 常用命名空间。命名空间对核心透明，这些只是约定值：
//
//   - NamespaceGlobal 全局共享状态
//   - NamespaceUser 按用户隔离的状态
//   - NamespaceSession 会话级状态
//   - NamespaceTemporary 临时状态，适合配合短 TTL 使用
const (
	NamespaceGlobal    = "global"
	NamespaceUser      = "user"
	NamespaceSession   = "session"
	NamespaceTemporary = "temporary"
)

// JoinKey 把命名空间和键名组合为存储键 "namespace:key"。
// namespace 为空时返回裸键名，不带分隔符。
func JoinKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + keySeparator + key
}

// SplitKey 把存储键拆回命名空间和键名，在第一个分隔符处切分。
// 没有分隔符时命名空间为空、键名为整个输入。
//
// 注意：键名自身可以包含分隔符（"user:a:b" 拆为 "user" 和 "a:b"），
// 但命名空间不能——含分隔符的命名空间经 JoinKey 组合后无法无歧义还原。
func SplitKey(storeKey string) (namespace, key string) {
	before, after, found := strings.Cut(storeKey, keySeparator)
	if !found {
		return "", storeKey
	}
	return before, after
}
