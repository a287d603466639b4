package models

import "time"

// ServiceDetail holds a service name together with its descriptor and version list.
type ServiceDetail struct {
	ServiceName string           `json:"serviceName" yaml:"serviceName"`
	Service     *RunningService  `json:"service,omitempty" yaml:"service,omitempty"`
	Versions    []ServiceVersion `json:"versions,omitempty" yaml:"versions,omitempty"`
}

// NewServiceDetail returns an empty detail for the given service name.
func NewServiceDetail(serviceName string) *ServiceDetail {
	return &ServiceDetail{ServiceName: serviceName}
}

// Copy returns a deep copy of the detail.
func (d *ServiceDetail) Copy() *ServiceDetail {
	if d == nil {
		return nil
	}
	c := &ServiceDetail{ServiceName: d.ServiceName}
	if d.Service != nil {
		svc := *d.Service
		svc.Deployments = append([]RunningServiceDeployment(nil), d.Service.Deployments...)
		svc.Events = append([]RunningServiceEvent(nil), d.Service.Events...)
		svc.Tasks = append([]RunningTask(nil), d.Service.Tasks...)
		c.Service = &svc
	}
	if d.Versions != nil {
		c.Versions = append([]ServiceVersion(nil), d.Versions...)
	}
	return c
}

// RunningService is the descriptor returned by the describe endpoint.
type RunningService struct {
	ServiceName  string                     `json:"serviceName" yaml:"serviceName"`
	ClusterName  string                     `json:"clusterName" yaml:"clusterName"`
	Status       string                     `json:"status" yaml:"status"`
	RunningCount int64                      `json:"runningCount" yaml:"runningCount"`
	PendingCount int64                      `json:"pendingCount" yaml:"pendingCount"`
	DesiredCount int64                      `json:"desiredCount" yaml:"desiredCount"`
	Deployments  []RunningServiceDeployment `json:"deployments" yaml:"deployments"`
	Events       []RunningServiceEvent      `json:"events" yaml:"events"`
	Tasks        []RunningTask              `json:"tasks" yaml:"tasks"`
}

// RunningServiceDeployment is a single ECS deployment of a service.
type RunningServiceDeployment struct {
	Status         string    `json:"status" yaml:"status"`
	RunningCount   int64     `json:"runningCount" yaml:"runningCount"`
	PendingCount   int64     `json:"pendingCount" yaml:"pendingCount"`
	DesiredCount   int64     `json:"desiredCount" yaml:"desiredCount"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"updatedAt"`
	TaskDefinition string    `json:"taskDefinition" yaml:"taskDefinition"`
}

// RunningServiceEvent is a service event as reported by ECS.
type RunningServiceEvent struct {
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	ID        string    `json:"id" yaml:"id"`
	Message   string    `json:"message" yaml:"message"`
}

// RunningTask is a task belonging to a service.
type RunningTask struct {
	TaskArn           string                 `json:"taskArn" yaml:"taskArn"`
	LastStatus        string                 `json:"lastStatus" yaml:"lastStatus"`
	DesiredStatus     string                 `json:"desiredStatus" yaml:"desiredStatus"`
	CreatedAt         time.Time              `json:"createdAt" yaml:"createdAt"`
	StartedAt         time.Time              `json:"startedAt" yaml:"startedAt"`
	TaskDefinitionArn string                 `json:"taskDefinitionArn" yaml:"taskDefinitionArn"`
	Containers        []RunningTaskContainer `json:"containers" yaml:"containers"`
}

// RunningTaskContainer is a container inside a running task.
type RunningTaskContainer struct {
	ContainerArn string `json:"containerArn" yaml:"containerArn"`
	Name         string `json:"name" yaml:"name"`
	LastStatus   string `json:"lastStatus" yaml:"lastStatus"`
}

// ServiceVersion is an image tag of a service, with its last deploy time if any.
type ServiceVersion struct {
	ImageName  string    `json:"imageName" yaml:"imageName"`
	Tag        string    `json:"tag" yaml:"tag"`
	ImageID    string    `json:"imageId" yaml:"imageId"`
	LastDeploy time.Time `json:"lastDeploy" yaml:"lastDeploy"`
	PushedAt   time.Time `json:"pushedAt" yaml:"pushedAt"`
}
