package video2frames

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoProbe 只关心视频流
type VideoProbe struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		NbFrames     string `json:"nb_frames"`      // 有些视频是字符串
		AvgFrameRate string `json:"avg_frame_rate"` // fallback
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// VideoInfo 为 ffprobe 解析结果
type VideoInfo struct {
	Width       int
	Height      int
	FrameRate   float64
	TotalFrames int
	Duration    time.Duration
}

// ffprobe 可在测试中替换
var ffprobe = func(videoPath string) (string, error) {
	return ffmpeg.Probe(videoPath)
}

// ProbeVideo 读取视频流的尺寸、帧率与帧数
func ProbeVideo(videoPath string) (VideoInfo, error) {
	probeStr, err := ffprobe(videoPath)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe error: %w", err)
	}
	return parseProbe([]byte(probeStr))
}

func parseProbe(data []byte) (VideoInfo, error) {
	var probe VideoProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return VideoInfo{}, fmt.Errorf("json unmarshal error: %w", err)
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info := VideoInfo{
			Width:     stream.Width,
			Height:    stream.Height,
			FrameRate: parseRate(stream.AvgFrameRate),
		}
		seconds := parseSeconds(stream.Duration)
		if seconds == 0 {
			seconds = parseSeconds(probe.Format.Duration)
		}
		info.Duration = time.Duration(seconds * float64(time.Second))

		// nb_frames 存在则直接使用，否则用 avg_frame_rate * duration 估算
		if n, err := strconv.Atoi(stream.NbFrames); err == nil && n > 0 {
			info.TotalFrames = n
		} else if info.FrameRate > 0 {
			info.TotalFrames = int(info.FrameRate * seconds)
		}
		return info, nil
	}

	return VideoInfo{}, fmt.Errorf("no video stream found")
}

// parseRate 解析 "30000/1001" 形式的帧率
func parseRate(s string) float64 {
	if s == "" || s == "0/0" {
		return 0
	}
	parts := strings.Split(s, "/")
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
