package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = 32
	}
	if cfg.Viewport.Width == 0 {
		cfg.Viewport.Width = 800
	}
	if cfg.Viewport.Height == 0 {
		cfg.Viewport.Height = 600
	}
	if cfg.Viewport.Margin == 0 {
		cfg.Viewport.Margin = 40
	}
	if cfg.Camera.ZoomMin == 0 {
		cfg.Camera.ZoomMin = 0.5
	}
	if cfg.Camera.ZoomMax == 0 {
		cfg.Camera.ZoomMax = 10
	}
	if cfg.Camera.ZoomInStep == 0 {
		cfg.Camera.ZoomInStep = 1.1
	}
	if cfg.Camera.ZoomOutStep == 0 {
		cfg.Camera.ZoomOutStep = 0.9
	}
	if cfg.Render.FPS == 0 {
		cfg.Render.FPS = 30
	}
	if cfg.Render.EdgeZoomThreshold == 0 {
		cfg.Render.EdgeZoomThreshold = 0.7
	}
	if cfg.Render.EdgeMaxPoints == 0 {
		cfg.Render.EdgeMaxPoints = 500
	}
	if cfg.Render.Neighbors == 0 {
		cfg.Render.Neighbors = 2
	}
	if cfg.Render.LabelMaxLen == 0 {
		cfg.Render.LabelMaxLen = 24
	}
	if cfg.Render.StarCount == 0 {
		cfg.Render.StarCount = 200
	}
	if cfg.Render.StarSeed == 0 {
		cfg.Render.StarSeed = 42
	}
	if cfg.Similarity.HighThreshold == 0 {
		cfg.Similarity.HighThreshold = 0.6
	}
	if cfg.Similarity.MidThreshold == 0 {
		cfg.Similarity.MidThreshold = 0.3
	}
	if cfg.Similarity.BaseRadius == 0 {
		cfg.Similarity.BaseRadius = 3
	}
	if cfg.Similarity.MatchRadiusScale == 0 {
		cfg.Similarity.MatchRadiusScale = 1.8
	}
	if cfg.Similarity.HoverRadiusScale == 0 {
		cfg.Similarity.HoverRadiusScale = 2
	}
	if cfg.Similarity.BaseOpacity == 0 {
		cfg.Similarity.BaseOpacity = 0.7
	}
	if cfg.Similarity.GhostOpacity == 0 {
		cfg.Similarity.GhostOpacity = 0.15
	}
	if cfg.Interaction.HitThreshold == 0 {
		cfg.Interaction.HitThreshold = 10
	}
	if cfg.Interaction.CellSize == 0 {
		cfg.Interaction.CellSize = 20
	}
	if cfg.Interaction.DragSlop == 0 {
		cfg.Interaction.DragSlop = 3
	}
	if cfg.Interaction.AutoCenterTopK == 0 {
		cfg.Interaction.AutoCenterTopK = 5
	}
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = 50
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = 256
	}
	if cfg.Search.Fuzziness == 0 {
		cfg.Search.Fuzziness = 1
	}
	// Watch defaults to true when a dataset is configured and watch is unset (nil).
	if cfg.Dataset.Path != "" && cfg.Dataset.Watch == nil {
		t := true
		cfg.Dataset.Watch = &t
	}
}
