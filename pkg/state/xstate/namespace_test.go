package xstate

import "testing"

func TestJoinKey(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		key       string
		want      string
	}{
		{"普通命名空间", "user", "42", "user:42"},
		{"内置 session 命名空间", NamespaceSession, "abc", "session:abc"},
		{"空命名空间返回裸键", "", "standalone", "standalone"},
		{"键本身含分隔符", "user", "42:profile", "user:42:profile"},
		{"中文键", NamespaceSession, "用户会话", "session:用户会话"},
		{"空键", "user", "", "user:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinKey(tt.namespace, tt.key); got != tt.want {
				t.Errorf("JoinKey(%q, %q) = %q, want %q", tt.namespace, tt.key, got, tt.want)
			}
		})
	}
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		name     string
		storeKey string
		wantNS   string
		wantKey  string
	}{
		{"普通存储键", "user:42", "user", "42"},
		{"键含多个分隔符时只切第一个", "user:42:profile", "user", "42:profile"},
		{"无分隔符视为裸键", "standalone", "", "standalone"},
		{"空字符串", "", "", ""},
		{"分隔符开头", ":orphan", "", "orphan"},
		{"中文命名空间", "会话:abc", "会话", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, key := SplitKey(tt.storeKey)
			if ns != tt.wantNS || key != tt.wantKey {
				t.Errorf("SplitKey(%q) = (%q, %q), want (%q, %q)",
					tt.storeKey, ns, key, tt.wantNS, tt.wantKey)
			}
		})
	}
}

func TestJoinSplitKey_RoundTrip(t *testing.T) {
	// 命名空间非空且不含分隔符时，Join 后 Split 必须精确还原
	cases := [][2]string{
		{"user", "42"},
		{"session", "a:b:c"},
		{"temp", ""},
		{"全局", "配置项"},
	}
	for _, c := range cases {
		ns, key := SplitKey(JoinKey(c[0], c[1]))
		if ns != c[0] || key != c[1] {
			t.Errorf("round-trip (%q, %q) → (%q, %q)", c[0], c[1], ns, key)
		}
	}
}
