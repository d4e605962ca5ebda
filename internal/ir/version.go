package ir

// EngineVersion is the prolly release reported by "prolly --version".
const EngineVersion = "0.1.0"
