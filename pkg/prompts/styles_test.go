package prompts

import (
	"sort"
	"strings"
	"testing"
)

func TestResolveArtStyle(t *testing.T) {
	t.Run("既知のキーはそのまま解決されるのだ", func(t *testing.T) {
		descriptor, ok := ResolveArtStyle("anime")
		if !ok {
			t.Error("既知キーが未知扱いになったのだ")
		}
		if !strings.Contains(descriptor, "anime") {
			t.Errorf("anime の記述が返っていないのだ: %s", descriptor)
		}
	})

	t.Run("未知のキーはデフォルト画風に倒れるのだ", func(t *testing.T) {
		descriptor, ok := ResolveArtStyle("oil-painting-8k")
		if ok {
			t.Error("未知キーが既知扱いになったのだ")
		}
		defaultDescriptor, _ := ResolveArtStyle(DefaultArtStyleKey)
		if descriptor != defaultDescriptor {
			t.Errorf("デフォルト画風と一致しないのだ: %s", descriptor)
		}
	})
}

func TestStyleKeys(t *testing.T) {
	keys := StyleKeys()

	if !sort.StringsAreSorted(keys) {
		t.Error("キーが昇順ではないのだ")
	}

	found := false
	for _, k := range keys {
		if k == DefaultArtStyleKey {
			found = true
		}
	}
	if !found {
		t.Errorf("デフォルトキー %q が一覧に無いのだ", DefaultArtStyleKey)
	}
}

func TestNormalizeAspectRatio(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"16:9", AspectLandscape, true},
		{"9:16", AspectPortrait, true},
		{"4:3", AspectLandscape, false},
		{"", AspectLandscape, false},
	}

	for _, tc := range cases {
		got, ok := NormalizeAspectRatio(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("NormalizeAspectRatio(%q) = (%q, %v), 期待 (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestBuildScenePrompt(t *testing.T) {
	user, system := BuildScenePrompt("soft watercolor, a fox by the river", "9:16", 2)

	if !strings.Contains(user, "a fox by the river") {
		t.Error("UserPrompt に場面記述が無いのだ")
	}
	if !strings.Contains(user, "2 attached images") {
		t.Error("参照画像2枚の言及が無いのだ")
	}
	if !strings.Contains(system, "9:16 portrait") {
		t.Error("SystemPrompt に縦長指定が無いのだ")
	}
	if !strings.Contains(system, "### AVOID ###") {
		t.Error("抑止セクションが無いのだ")
	}
}

func TestBuildEditPrompt(t *testing.T) {
	user, system := BuildEditPrompt("give the fox a red scarf", 1)

	if !strings.Contains(user, "FIRST attached image is the illustration to edit") {
		t.Error("編集対象の添付順契約が書かれていないのだ")
	}
	if !strings.Contains(user, "give the fox a red scarf") {
		t.Error("編集指示が埋め込まれていないのだ")
	}
	if !strings.Contains(system, "ONLY the requested change") {
		t.Error("変更範囲の制約が無いのだ")
	}
}

func TestBuildVideoPrompt(t *testing.T) {
	user, system := BuildVideoPrompt("きつねは川をながめました。", "soft watercolor", "Japanese", 1)

	if !strings.Contains(user, "### SCENE TEXT (Japanese) ###") {
		t.Error("本文の言語ヘッダが無いのだ")
	}
	if !strings.Contains(user, "きつねは川をながめました。") {
		t.Error("本文が埋め込まれていないのだ")
	}
	if !strings.Contains(system, "2-4 sentences") {
		t.Error("モーション指示の長さ制約が無いのだ")
	}
}
